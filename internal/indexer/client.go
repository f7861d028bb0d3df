// Package indexer Subgraph 索引服务客户端
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smysle/redpacket-go/internal/errs"
	"github.com/smysle/redpacket-go/internal/metrics"
	"github.com/smysle/redpacket-go/internal/models"
	"github.com/smysle/redpacket-go/pkg/logger"
)

const (
	DefaultPageSize       = 20
	DefaultClaimsPageSize = 100
)

// Options 客户端参数
type Options struct {
	URL            string
	Timeout        time.Duration
	PageSize       int
	ClaimsPageSize int
}

// Client GraphQL 客户端。不做自动重试，超时由 resty 负责。
type Client struct {
	url            string
	pageSize       int
	claimsPageSize int
	httpClient     *resty.Client
}

// NewClient 创建索引服务客户端
func NewClient(opts Options) *Client {
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	} else {
		client.SetTimeout(30 * time.Second)
	}
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	claimsPageSize := opts.ClaimsPageSize
	if claimsPageSize <= 0 {
		claimsPageSize = DefaultClaimsPageSize
	}

	return &Client{
		url:            opts.URL,
		pageSize:       pageSize,
		claimsPageSize: claimsPageSize,
		httpClient:     client,
	}
}

// Close 释放连接
func (c *Client) Close() {
	c.httpClient.GetClient().CloseIdleConnections()
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// request 发送 GraphQL 请求并把 data 解析到 out
func (c *Client) request(ctx context.Context, name, query string, vars map[string]interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveIndexerQuery(name, start, err)
	}()

	fail := func(e error) error {
		return &errs.QueryError{Source: "indexer", Op: name, Err: e}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		Post(c.url)
	if err != nil {
		return fail(fmt.Errorf("请求失败: %w", err))
	}

	if resp.IsError() {
		return fail(fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}

	var result graphQLResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fail(fmt.Errorf("解析响应失败: %w", err))
	}

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return fail(fmt.Errorf("GraphQL 错误: %s", strings.Join(msgs, "; ")))
	}

	if len(result.Data) == 0 || string(result.Data) == "null" {
		return fail(fmt.Errorf("响应缺少 data"))
	}

	if err := json.Unmarshal(result.Data, out); err != nil {
		return fail(fmt.Errorf("解析 data 失败: %w", err))
	}

	logger.Debug().
		Str("query", name).
		Dur("elapsed", time.Since(start)).
		Msg("索引查询完成")

	return nil
}

// ListPackets 最新的红包列表（按 ID 倒序）
func (c *Client) ListPackets(ctx context.Context) ([]models.Packet, error) {
	var data packetsData
	vars := map[string]interface{}{"first": c.pageSize}
	if err := c.request(ctx, QueryListPackets, listPacketsQuery, vars, &data); err != nil {
		return nil, err
	}
	return convertPackets(QueryListPackets, data.Packets)
}

// ListPacketsByCreator 某地址创建的红包
func (c *Client) ListPacketsByCreator(ctx context.Context, creator string) ([]models.Packet, error) {
	var data packetsData
	vars := map[string]interface{}{
		"creator": strings.ToLower(creator),
		"first":   c.pageSize,
	}
	if err := c.request(ctx, QueryListPacketsByCreator, listPacketsByCreatorQuery, vars, &data); err != nil {
		return nil, err
	}
	return convertPackets(QueryListPacketsByCreator, data.Packets)
}

// ListClaims 某红包的领取记录（按区块时间倒序），first <= 0 时使用默认分页
func (c *Client) ListClaims(ctx context.Context, packetID string, first int) ([]models.Claim, error) {
	if first <= 0 {
		first = c.claimsPageSize
	}

	var data claimsData
	vars := map[string]interface{}{
		"redPacketId": packetID,
		"first":       first,
	}
	if err := c.request(ctx, QueryListClaims, listClaimsQuery, vars, &data); err != nil {
		return nil, err
	}

	claims := make([]models.Claim, 0, len(data.Claims))
	for i := range data.Claims {
		claim, err := data.Claims[i].toClaim()
		if err != nil {
			return nil, &errs.QueryError{Source: "indexer", Op: QueryListClaims, Err: fmt.Errorf("记录 %d: %w", i, err)}
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

func convertPackets(query string, raw []rawPacket) ([]models.Packet, error) {
	packets := make([]models.Packet, 0, len(raw))
	for i := range raw {
		p, err := raw[i].toPacket()
		if err != nil {
			return nil, &errs.QueryError{Source: "indexer", Op: query, Err: fmt.Errorf("记录 %d: %w", i, err)}
		}
		packets = append(packets, p)
	}
	return packets, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
