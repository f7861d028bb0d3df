// Package config 配置管理模块
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 全局配置结构
type Config struct {
	Chain     ChainConfig     `json:"chain"`
	Indexer   IndexerConfig   `json:"indexer"`
	API       APIConfig       `json:"api"`
	Bot       BotConfig       `json:"bot"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Log       LogConfig       `json:"log"`
}

// ChainConfig 链与合约配置
type ChainConfig struct {
	RPCURL             string `json:"rpc_url"`
	ChainID            int64  `json:"chain_id"`
	Contract           string `json:"contract"`
	PrivateKey         string `json:"private_key"` // 为空则只读
	ConfirmPollSeconds int    `json:"confirm_poll_seconds"`
	ExplorerURL        string `json:"explorer_url"`
	Decimals           int32  `json:"decimals"`
	Symbol             string `json:"symbol"`
}

// IndexerConfig 索引服务（Subgraph）配置
type IndexerConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	PageSize       int    `json:"page_size"`
	ClaimsPageSize int    `json:"claims_page_size"`
}

// APIConfig Web API 配置
type APIConfig struct {
	Enabled      bool     `json:"enabled"`
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	AllowOrigins []string `json:"allow_origins"`
}

// BotConfig Telegram Bot 配置
type BotConfig struct {
	Enabled bool    `json:"enabled"`
	Name    string  `json:"name"`
	Token   string  `json:"token"`
	Owner   int64   `json:"owner"`
	Admins  []int64 `json:"admins"`
	Group   int64   `json:"group"` // 交易通知推送的群组
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	AutoRefreshSeconds int    `json:"auto_refresh_seconds"` // 0 表示关闭
	Timezone           string `json:"timezone"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir      string `json:"dir"`
	File     string `json:"file"`
	Timezone string `json:"timezone"`
}

// Load 加载配置：JSON 文件（可选）→ .env → 环境变量覆盖 → 默认值
func Load(path, envFile string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// 允许只用环境变量配置
		default:
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("加载 %s 失败: %w", envFile, err)
		}
	}

	config.applyEnv()
	config.setDefaults()

	return &config, nil
}

// applyEnv 环境变量覆盖，兼容前端的 VITE_* 变量名
func (c *Config) applyEnv() {
	setString(&c.Chain.RPCURL, "REDPACKET_RPC_URL", "VITE_RPC_URL")
	setString(&c.Chain.Contract, "REDPACKET_CONTRACT", "VITE_RED_PACKET_ADDRESS")
	setString(&c.Chain.PrivateKey, "REDPACKET_PRIVATE_KEY")
	setString(&c.Chain.ExplorerURL, "REDPACKET_EXPLORER_URL")
	setString(&c.Chain.Symbol, "REDPACKET_SYMBOL")
	setInt64(&c.Chain.ChainID, "REDPACKET_CHAIN_ID")

	setString(&c.Indexer.URL, "REDPACKET_SUBGRAPH_URL", "VITE_SUBGRAPH_URL")

	setString(&c.API.Host, "REDPACKET_API_HOST")
	if v, ok := lookup("REDPACKET_API_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.API.Port = port
		}
	}

	setString(&c.Bot.Token, "REDPACKET_BOT_TOKEN")
	setInt64(&c.Bot.Group, "REDPACKET_BOT_GROUP")
	setInt64(&c.Bot.Owner, "REDPACKET_BOT_OWNER")
}

// setDefaults 设置默认值（BSC 测试网）
func (c *Config) setDefaults() {
	if c.Chain.RPCURL == "" {
		c.Chain.RPCURL = "https://data-seed-prebsc-1-s1.bnbchain.org:8545"
	}
	if c.Chain.ChainID == 0 {
		c.Chain.ChainID = 97
	}
	if c.Chain.ConfirmPollSeconds == 0 {
		c.Chain.ConfirmPollSeconds = 3
	}
	if c.Chain.ExplorerURL == "" {
		c.Chain.ExplorerURL = "https://testnet.bscscan.com"
	}
	if c.Chain.Decimals == 0 {
		c.Chain.Decimals = 18
	}
	if c.Chain.Symbol == "" {
		c.Chain.Symbol = "BNB"
	}
	if c.Indexer.TimeoutSeconds == 0 {
		c.Indexer.TimeoutSeconds = 30
	}
	if c.Indexer.PageSize == 0 {
		c.Indexer.PageSize = 20
	}
	if c.Indexer.ClaimsPageSize == 0 {
		c.Indexer.ClaimsPageSize = 100
	}
	if c.API.Port == 0 {
		c.API.Port = 8838
	}
	if len(c.API.AllowOrigins) == 0 {
		c.API.AllowOrigins = []string{"*"}
	}
	if c.Bot.Name == "" {
		c.Bot.Name = "RedPacketBot"
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "Asia/Shanghai"
	}
	if c.Log.Timezone == "" {
		c.Log.Timezone = c.Scheduler.Timezone
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Indexer.URL == "" {
		return errors.New("未配置索引服务地址 indexer.url")
	}
	if c.Chain.Contract == "" {
		return errors.New("未配置红包合约地址 chain.contract")
	}
	if c.Chain.Decimals < 0 || c.Chain.Decimals > 36 {
		return fmt.Errorf("无效的精度 chain.decimals: %d", c.Chain.Decimals)
	}
	if c.Bot.Enabled && c.Bot.Token == "" {
		return errors.New("已启用 Bot 但未配置 bot.token")
	}
	return nil
}

// ReadOnly 未配置私钥时只能查询
func (c *Config) ReadOnly() bool {
	return c.Chain.PrivateKey == ""
}

// IsAdmin 判断是否是管理员
func (c *BotConfig) IsAdmin(userID int64) bool {
	if userID == c.Owner {
		return true
	}
	for _, admin := range c.Admins {
		if admin == userID {
			return true
		}
	}
	return false
}

func lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

func setString(dst *string, keys ...string) {
	if v, ok := lookup(keys...); ok {
		*dst = v
	}
}

func setInt64(dst *int64, keys ...string) {
	if v, ok := lookup(keys...); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
