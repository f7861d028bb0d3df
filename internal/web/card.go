package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smysle/redpacket-go/internal/derive"
	"github.com/smysle/redpacket-go/internal/service"
	"github.com/smysle/redpacket-go/pkg/imggen"
	"github.com/smysle/redpacket-go/pkg/utils"
)

const cardCacheTTL = 5 * time.Minute

// packetCard 红包卡片图片，按领取进度缓存
func (s *Server) packetCard(c *fiber.Ctx) error {
	id, err := packetID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.svc.EnsureLoaded(c.UserContext()); err != nil {
		return writeError(c, err)
	}

	p, ok := s.svc.Packet(id)
	if !ok {
		return writeError(c, service.ErrPacketNotFound)
	}
	view := derive.NewPacketView(&p, s.view)

	key := "card:" + view.ID + ":" + view.ClaimedCount + ":" + view.RemainingAmountDetail
	img, err := utils.CacheGetOrSet(key, cardCacheTTL, func() (interface{}, error) {
		return imggen.GenerateCard(view.Card())
	})
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Type("png")
	return c.Send(img.([]byte))
}
