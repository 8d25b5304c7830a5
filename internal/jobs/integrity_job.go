package jobs

import (
	"context"
	"log"
	"time"

	"partner-office/internal/services"
)

// IntegrityJob periodically audits the referral edge set, outside the hot
// resolution path.
type IntegrityJob struct {
	service *services.IntegrityService
}

func NewIntegrityJob(service *services.IntegrityService) *IntegrityJob {
	return &IntegrityJob{service: service}
}

// Start begins the periodic integrity audit
func (j *IntegrityJob) Start(interval time.Duration) {
	go func() {
		// Run immediately on start
		ctx := context.Background()
		j.runOnce(ctx)

		// Then run periodically
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			j.runOnce(ctx)
		}
	}()
}

func (j *IntegrityJob) runOnce(ctx context.Context) {
	report, err := j.service.CheckEdges(ctx)
	if err != nil {
		log.Printf("Integrity audit error: %v", err)
		return
	}

	if report.Clean() {
		log.Printf("Integrity audit: %d partners, edge set clean", report.Partners)
		return
	}

	log.Printf("Integrity audit: %d partners, dangling=%v cycles=%v",
		report.Partners, report.DanglingEdges, report.CycleCodes)
}
