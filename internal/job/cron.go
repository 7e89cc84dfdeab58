package job

import (
	"agritrade/internal/service"
	"agritrade/pkg/config"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartExpirySweep runs the listing expiry sweep on the configured schedule.
// Halls also sweep inline on read, so the cron only has to catch listings
// nobody is looking at.
func StartExpirySweep(cfg *config.Config, db *gorm.DB) (*cron.Cron, error) {
	log := logger.GetLogger()
	c := cron.New()

	_, err := c.AddFunc(cfg.Trade.ExpirySweepSpec, func() {
		swept, err := service.ExpireListings(db)
		if err != nil {
			log.Error("listing expiry sweep failed", zap.Error(err))
			return
		}
		if swept > 0 {
			prometheus.ListingExpiredCounter.Add(float64(swept))
			log.Info("expired listings withdrawn", zap.Int64("count", swept))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
