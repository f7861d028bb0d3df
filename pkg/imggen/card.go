// Package imggen 图片生成模块
package imggen

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 卡片尺寸
const (
	CardWidth  = 360
	CardHeight = 280
)

// CardData 红包卡片数据，金额等字段由调用方格式化
type CardData struct {
	ID          string
	Creator     string // 已缩写的地址
	TotalAmount string
	Remaining   string
	Symbol      string
	Claimed     string
	Total       string
	Progress    int // 0-100
	Exhausted   bool
}

// 颜色定义
var (
	redTop       = color.RGBA{230, 57, 70, 255}   // 可领取渐变起始
	redBottom    = color.RGBA{157, 2, 8, 255}     // 可领取渐变结束
	greyTop      = color.RGBA{150, 150, 150, 255} // 已抢光渐变起始
	greyBottom   = color.RGBA{90, 90, 90, 255}    // 已抢光渐变结束
	goldColor    = color.RGBA{255, 215, 0, 255}
	textColor    = color.RGBA{255, 255, 255, 255}
	subTextColor = color.RGBA{255, 230, 230, 255}
	trackColor   = color.RGBA{255, 255, 255, 70}
)

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *truetype.Font
	bold      *truetype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = truetype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = truetype.Parse(gobold.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// GenerateCard 生成红包卡片 PNG：可领取为红色渐变，已抢光为灰色
func GenerateCard(data CardData) ([]byte, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}

	dc := gg.NewContext(CardWidth, CardHeight)

	top, bottom := redTop, redBottom
	if data.Exhausted {
		top, bottom = greyTop, greyBottom
	}
	drawBackground(dc, top, bottom)
	drawHeader(dc, data)
	drawAmounts(dc, data)
	drawProgress(dc, data)

	return exportPNG(dc)
}

// drawBackground 圆角渐变背景
func drawBackground(dc *gg.Context, top, bottom color.RGBA) {
	grad := gg.NewLinearGradient(0, 0, 0, CardHeight)
	grad.AddColorStop(0, top)
	grad.AddColorStop(1, bottom)
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(0, 0, CardWidth, CardHeight, 16)
	dc.Fill()
}

// drawHeader 编号、状态与创建者
func drawHeader(dc *gg.Context, data CardData) {
	dc.SetFontFace(face(bold, 22))
	dc.SetColor(goldColor)
	dc.DrawStringAnchored("Red Packet #"+data.ID, 20, 36, 0, 0.5)

	status := "OPEN"
	if data.Exhausted {
		status = "FINISHED"
	}
	dc.SetFontFace(face(bold, 12))
	dc.SetColor(textColor)
	dc.DrawStringAnchored(status, CardWidth-20, 36, 1, 0.5)

	dc.SetFontFace(face(regular, 13))
	dc.SetColor(subTextColor)
	dc.DrawStringAnchored("by "+data.Creator, 20, 66, 0, 0.5)
}

// drawAmounts 总额与剩余金额
func drawAmounts(dc *gg.Context, data CardData) {
	dc.SetFontFace(face(bold, 30))
	dc.SetColor(textColor)
	dc.DrawStringAnchored(fmt.Sprintf("%s %s", data.TotalAmount, data.Symbol), CardWidth/2, 120, 0.5, 0.5)

	dc.SetFontFace(face(regular, 14))
	dc.SetColor(subTextColor)
	dc.DrawStringAnchored(fmt.Sprintf("Remaining %s %s", data.Remaining, data.Symbol), CardWidth/2, 160, 0.5, 0.5)
}

// drawProgress 领取进度条
func drawProgress(dc *gg.Context, data CardData) {
	const x, y, w, h = 20.0, 200.0, CardWidth - 40.0, 12.0

	dc.SetColor(trackColor)
	dc.DrawRoundedRectangle(x, y, w, h, h/2)
	dc.Fill()

	progress := data.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > 0 {
		dc.SetColor(goldColor)
		dc.DrawRoundedRectangle(x, y, w*float64(progress)/100, h, h/2)
		dc.Fill()
	}

	dc.SetFontFace(face(regular, 13))
	dc.SetColor(textColor)
	dc.DrawStringAnchored(fmt.Sprintf("%s / %s claimed", data.Claimed, data.Total), x, y+36, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d%%", progress), x+w, y+36, 1, 0.5)
}

// exportPNG 导出为 PNG
func exportPNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
