package auditor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/moizuddin404/wsa-backend/colors"
	"github.com/moizuddin404/wsa-backend/database"
	"github.com/moizuddin404/wsa-backend/server/metrics"
	"github.com/moizuddin404/wsa-backend/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const AUDIT_JOB_TAG = "contact_audit"

// Finding is one invariant violation discovered by an audit pass.
type Finding struct {
	Kind   string // "over_limit" or "duplicate_phone"
	UserID string
	Detail string
}

// Auditor periodically scans the trusted-contact collection for documents
// that raced past the create/update checks: users holding more than the
// contact cap, and duplicate (user_id, phone) pairs that predate the unique
// index. Findings are logged and exported as metrics; nothing is remediated
// automatically.
type Auditor struct {
	contacts  database.Collection
	scheduler *gocron.Scheduler
	logg      *zap.SugaredLogger
}

func NewAuditor(contacts database.Collection, logg *zap.SugaredLogger) *Auditor {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.TagsUnique()

	return &Auditor{contacts: contacts, scheduler: scheduler, logg: logg}
}

// Start schedules the audit at the given interval (e.g. "30m") and runs the
// scheduler in the background.
func (auditor *Auditor) Start(interval string) error {
	_, err := auditor.scheduler.Every(interval).Tag(AUDIT_JOB_TAG).Do(auditor.runAudit)
	if err != nil {
		return err
	}

	auditor.scheduler.StartAsync()
	return nil
}

func (auditor *Auditor) Stop() {
	auditor.scheduler.Stop()
}

func (auditor *Auditor) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	findings, err := auditor.Audit(ctx)
	if err != nil {
		auditor.logg.Errorf("contact audit failed: %v", err)
		return
	}

	overLimit, duplicates := 0, 0
	for _, finding := range findings {
		auditor.logg.Warnf(colors.Yellow("contact audit: %v user_id=%v %v"), finding.Kind, finding.UserID, finding.Detail)
		if finding.Kind == "over_limit" {
			overLimit++
		} else {
			duplicates++
		}
	}

	metrics.ContactInvariantViolations.WithLabelValues("over_limit").Set(float64(overLimit))
	metrics.ContactInvariantViolations.WithLabelValues("duplicate_phone").Set(float64(duplicates))

	if len(findings) == 0 {
		auditor.logg.Infof(colors.Green("contact audit: all invariants hold"))
	}
}

// Audit performs a single pass and returns the violations found.
func (auditor *Auditor) Audit(ctx context.Context) ([]Finding, error) {
	contacts := []models.TrustedContact{}
	if err := auditor.contacts.Find(ctx, bson.M{}, nil, &contacts); err != nil {
		return nil, err
	}

	countsByUser := map[string]int{}
	phonesByUser := map[string]map[string]int{}
	for _, contact := range contacts {
		countsByUser[contact.UserID]++

		if phonesByUser[contact.UserID] == nil {
			phonesByUser[contact.UserID] = map[string]int{}
		}
		phonesByUser[contact.UserID][contact.Phone]++
	}

	findings := []Finding{}
	for userID, count := range countsByUser {
		if count > models.MAX_TRUSTED_CONTACTS {
			findings = append(findings, Finding{
				Kind:   "over_limit",
				UserID: userID,
				Detail: fmt.Sprintf("%v contacts (cap is %v)", count, models.MAX_TRUSTED_CONTACTS),
			})
		}
	}

	for userID, phones := range phonesByUser {
		for phone, count := range phones {
			if count > 1 {
				findings = append(findings, Finding{
					Kind:   "duplicate_phone",
					UserID: userID,
					Detail: fmt.Sprintf("phone %v held by %v contacts", phone, count),
				})
			}
		}
	}

	return findings, nil
}
