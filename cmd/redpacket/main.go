// RedPacket - 链上红包客户端
// Telegram Bot + Web API + 命令行
package main

func main() {
	Execute()
}
