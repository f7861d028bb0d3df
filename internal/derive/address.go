package derive

// ShortAddress 紧凑显示：前 6 位 + "..." + 后 4 位
func ShortAddress(addr string) string {
	return abbreviate(addr, 6, 4)
}

// HistoryAddress 领取记录表显示：前 10 位 + "..." + 后 8 位
func HistoryAddress(addr string) string {
	return abbreviate(addr, 10, 8)
}

func abbreviate(addr string, head, tail int) string {
	if len(addr) <= head+tail {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}
