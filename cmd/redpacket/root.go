package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/smysle/redpacket-go/internal/config"
	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/pkg/logger"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath string // 配置文件
	EnvFile    string // .env 文件
	Debug      bool   // 调试模式
}

var (
	globalFlags GlobalFlags
	cfg         *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "redpacket",
	Short: "链上红包客户端",
	Long: `RedPacket - 链上红包客户端

- serve      启动 Telegram Bot 与 Web API
- packets    查看红包列表
- history    查看领取记录
- eligibility 查询领取资格
- claim      领取红包（需要私钥）
- create     发红包（需要私钥）`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(globalFlags.ConfigPath, globalFlags.EnvFile)
		if err != nil {
			return fmt.Errorf("加载配置: %w", err)
		}

		logger.Init(logger.Options{
			Debug:    globalFlags.Debug,
			Dir:      c.Log.Dir,
			File:     c.Log.File,
			Timezone: c.Log.Timezone,
		})

		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errs.IsValidation(err) {
			pterm.Warning.Println(err.Error())
		} else {
			pterm.Error.Println(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "config.json", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&globalFlags.EnvFile, "env", ".env", ".env 文件路径")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "调试模式")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(packetsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(createCmd)
}
