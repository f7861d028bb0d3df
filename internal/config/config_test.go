// Package config 配置模块测试
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBotConfig_IsAdmin(t *testing.T) {
	cfg := &BotConfig{
		Owner:  12345,
		Admins: []int64{11111, 22222},
	}

	tests := []struct {
		name     string
		userID   int64
		expected bool
	}{
		{"Owner 是管理员", 12345, true},
		{"Admin 是管理员", 11111, true},
		{"Admin2 是管理员", 22222, true},
		{"普通用户不是管理员", 99999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsAdmin(tt.userID); got != tt.expected {
				t.Errorf("IsAdmin(%d) = %v, want %v", tt.userID, got, tt.expected)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	if cfg.Chain.ChainID != 97 {
		t.Errorf("默认 ChainID 应该是 97，实际是 %d", cfg.Chain.ChainID)
	}
	if cfg.Chain.Decimals != 18 {
		t.Errorf("默认精度应该是 18，实际是 %d", cfg.Chain.Decimals)
	}
	if cfg.Chain.Symbol != "BNB" {
		t.Errorf("默认币种应该是 BNB，实际是 %s", cfg.Chain.Symbol)
	}
	if cfg.Indexer.PageSize != 20 {
		t.Errorf("默认分页大小应该是 20，实际是 %d", cfg.Indexer.PageSize)
	}
	if cfg.Indexer.ClaimsPageSize != 100 {
		t.Errorf("默认领取记录分页应该是 100，实际是 %d", cfg.Indexer.ClaimsPageSize)
	}
	if cfg.API.Port != 8838 {
		t.Errorf("默认 API 端口应该是 8838，实际是 %d", cfg.API.Port)
	}
	if !cfg.ReadOnly() {
		t.Error("未配置私钥时应该是只读")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"chain":{"contract":"0xabc","chain_id":56},"indexer":{"url":"https://file.example/subgraph"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("REDPACKET_API_PORT=9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("REDPACKET_API_PORT") })

	t.Setenv("VITE_SUBGRAPH_URL", "https://env.example/subgraph")

	cfg, err := Load(path, envFile)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}

	if cfg.Indexer.URL != "https://env.example/subgraph" {
		t.Errorf("环境变量应覆盖文件配置，实际是 %s", cfg.Indexer.URL)
	}
	if cfg.Chain.ChainID != 56 {
		t.Errorf("ChainID 应该是 56，实际是 %d", cfg.Chain.ChainID)
	}
	if cfg.API.Port != 9000 {
		t.Errorf(".env 中的端口应该生效，实际是 %d", cfg.API.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate 返回错误: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), "")
	if err != nil {
		t.Fatalf("缺少配置文件时应使用默认值: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("未配置索引服务时 Validate 应该返回错误")
	}
}
