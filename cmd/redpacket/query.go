package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/models"
)

var (
	packetsClaimable bool   // 只看可领取
	packetsCreator   string // 按创建者过滤
	eligibilityFor   string // 查询的钱包地址
)

// packetsCmd 红包列表
var packetsCmd = &cobra.Command{
	Use:   "packets",
	Short: "查看红包列表",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, nil, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var packets []models.Packet
		if packetsCreator != "" {
			packets, err = a.svc.LoadCreatorPackets(ctx, packetsCreator)
		} else {
			err = a.svc.LoadPackets(ctx)
			packets = a.svc.Packets()
			if packetsClaimable {
				packets = a.svc.ClaimablePackets()
			}
		}
		if err != nil {
			return err
		}

		if len(packets) == 0 {
			pterm.Info.Println("暂无红包")
			return nil
		}
		return renderPackets(derive.NewPacketViews(packets, viewOptions(cfg)))
	},
}

// historyCmd 领取记录
var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "查看红包领取记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, nil, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := models.ParsePacketID(args[0]); err != nil {
			return err
		}
		claims, err := a.svc.LoadClaimHistory(ctx, args[0])
		if err != nil {
			return err
		}
		if len(claims) == 0 {
			pterm.Info.Println("暂无领取记录")
			return nil
		}

		data := pterm.TableData{{"领取者", "金额", "时间", "交易"}}
		for _, c := range derive.NewClaimViews(claims, viewOptions(cfg)) {
			data = append(data, []string{c.ClaimerShort, c.Amount + " " + cfg.Chain.Symbol, c.Time, c.ExplorerURL})
		}
		pterm.DefaultSection.Printfln("红包 #%s 领取记录 (%d)", args[0], len(claims))
		return pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
	},
}

// eligibilityCmd 领取资格
var eligibilityCmd = &cobra.Command{
	Use:   "eligibility <id>",
	Short: "查询领取资格",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, nil, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.svc.LoadPackets(ctx); err != nil {
			return err
		}

		viewer := eligibilityFor
		if viewer == "" {
			viewer = a.svc.Viewer()
		}
		el, err := a.svc.CheckEligibility(ctx, args[0], viewer)
		if err != nil {
			return err
		}

		button := derive.ButtonFor(el)
		data := pterm.TableData{
			{"红包", el.PacketID},
			{"钱包", valueOr(el.Viewer, "-")},
			{"已抢光", strconv.FormatBool(el.Exhausted)},
			{"已领取", claimedText(el)},
			{"状态", button.Label()},
		}
		return pterm.DefaultTable.WithHasHeader(false).WithData(data).Render()
	},
}

func init() {
	packetsCmd.Flags().BoolVar(&packetsClaimable, "claimable", false, "只显示可领取的红包")
	packetsCmd.Flags().StringVar(&packetsCreator, "creator", "", "只显示该地址创建的红包")
	eligibilityCmd.Flags().StringVar(&eligibilityFor, "viewer", "", "钱包地址 (默认使用配置的签名钱包)")
}

// renderPackets 红包表格
func renderPackets(views []derive.PacketView) error {
	data := pterm.TableData{{"ID", "状态", "总金额", "剩余", "进度", "创建者"}}
	for _, v := range views {
		data = append(data, []string{
			"#" + v.ID,
			v.Status,
			v.TotalAmount + " " + v.Symbol,
			v.RemainingAmount + " " + v.Symbol,
			fmt.Sprintf("%s/%s (%d%%)", v.ClaimedCount, v.TotalCount, v.ProgressPercent),
			v.CreatorShort,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render()
}

func claimedText(el models.Eligibility) string {
	if !el.Checked {
		return "未查询"
	}
	return strconv.FormatBool(el.HasClaimed)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
