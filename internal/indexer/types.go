package indexer

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/smysle/redpacket-go/internal/models"
)

// rawPacket redPacketStats 实体，所有数值字段均为字符串
type rawPacket struct {
	ID              string   `json:"id"`
	RedPacketID     string   `json:"redPacketId"`
	Creator         string   `json:"creator"`
	TotalAmount     string   `json:"totalAmount"`
	TotalCount      string   `json:"totalCount"`
	ClaimedCount    string   `json:"claimedCount"`
	RemainingAmount string   `json:"remainingAmount"`
	Claimers        []string `json:"claimers"`
}

// rawClaim redPacketClaimed 事件实体
type rawClaim struct {
	ID              string `json:"id"`
	RedPacketID     string `json:"redPacketId"`
	Claimer         string `json:"claimer"`
	Amount          string `json:"amount"`
	BlockNumber     string `json:"blockNumber"`
	BlockTimestamp  string `json:"blockTimestamp"`
	TransactionHash string `json:"transactionHash"`
}

type packetsData struct {
	Packets []rawPacket `json:"redPacketStats_collection"`
}

type claimsData struct {
	Claims []rawClaim `json:"redPacketClaimeds"`
}

func parseUint(field, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("字段 %s 不是非负整数: %q", field, s)
	}
	return n, nil
}

func parseAddress(field, s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("字段 %s 不是有效地址: %q", field, s)
	}
	return s, nil
}

// toPacket 校验并转换为领域模型
func (r *rawPacket) toPacket() (models.Packet, error) {
	var (
		p   models.Packet
		err error
	)

	if _, err = parseUint("redPacketId", r.RedPacketID); err != nil {
		return p, err
	}
	p.ID = r.RedPacketID

	if p.Creator, err = parseAddress("creator", r.Creator); err != nil {
		return p, err
	}
	if p.TotalAmount, err = parseUint("totalAmount", r.TotalAmount); err != nil {
		return p, err
	}
	if p.TotalCount, err = parseUint("totalCount", r.TotalCount); err != nil {
		return p, err
	}
	if p.ClaimedCount, err = parseUint("claimedCount", r.ClaimedCount); err != nil {
		return p, err
	}
	if p.RemainingAmount, err = parseUint("remainingAmount", r.RemainingAmount); err != nil {
		return p, err
	}

	p.Claimers = make([]string, 0, len(r.Claimers))
	for i, c := range r.Claimers {
		addr, err := parseAddress(fmt.Sprintf("claimers[%d]", i), c)
		if err != nil {
			return p, err
		}
		p.Claimers = append(p.Claimers, addr)
	}

	return p, nil
}

// toClaim 校验并转换为领域模型
func (r *rawClaim) toClaim() (models.Claim, error) {
	var (
		c   models.Claim
		err error
	)

	if r.ID == "" {
		return c, fmt.Errorf("字段 id 为空")
	}
	c.ID = r.ID

	if _, err = parseUint("redPacketId", r.RedPacketID); err != nil {
		return c, err
	}
	c.PacketID = r.RedPacketID

	if c.Claimer, err = parseAddress("claimer", r.Claimer); err != nil {
		return c, err
	}
	if c.Amount, err = parseUint("amount", r.Amount); err != nil {
		return c, err
	}

	if c.BlockNumber, err = strconv.ParseUint(r.BlockNumber, 10, 64); err != nil {
		return c, fmt.Errorf("字段 blockNumber 无效: %q", r.BlockNumber)
	}
	ts, err := strconv.ParseInt(r.BlockTimestamp, 10, 64)
	if err != nil || ts < 0 {
		return c, fmt.Errorf("字段 blockTimestamp 无效: %q", r.BlockTimestamp)
	}
	c.BlockTimestamp = time.Unix(ts, 0)

	hash, err := hexutil.Decode(r.TransactionHash)
	if err != nil || len(hash) != common.HashLength {
		return c, fmt.Errorf("字段 transactionHash 无效: %q", r.TransactionHash)
	}
	c.TxHash = r.TransactionHash

	return c, nil
}
