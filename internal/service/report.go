package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/utils"
)

// ReportStore is the tenant storage behind the sales reports.
type ReportStore interface {
	ClearStaging(ctx context.Context, st model.StagingType, user string) error
	StageCurrent(ctx context.Context, company, date, user string, st model.StagingType) error
	StageRange(ctx context.Context, company, from, to, user string, st model.StagingType) error
	Totals(ctx context.Context, user string, companies []string) (model.SalesTotals, error)
	TotalsByCompany(ctx context.Context, user string, companies []string) ([]model.SalesTotals, error)
	TotalsByUnit(ctx context.Context, user string, companies []string) ([]model.SalesTotals, error)
	Breakdown(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.BreakdownRow, error)
	AmountChart(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.ChartPoint, error)
	QuantityChart(ctx context.Context, d model.Dimension, user string, companies []string) ([]model.ChartPoint, error)
}

// ReportRequest is one report run for the signed-in user.  Dates are raw
// client values; empty means absent.
type ReportRequest struct {
	Username    string
	Companies   []string
	CurrentDate string
	FromDate    string
	ToDate      string
}

// Staging modes.
const (
	ModeCurrent = "current"
	ModeRange   = "range"
	ModeSkipped = "skipped"
)

// StagingOutcome reports what the staging step did.  Failures are logged
// with their cause; callers only see which steps failed.
type StagingOutcome struct {
	Cleared   bool             `json:"cleared"`
	Mode      string           `json:"mode"`
	Companies []CompanyOutcome `json:"companies"`
}

// CompanyOutcome is the staging result of one company.
type CompanyOutcome struct {
	CompanyCode string `json:"company_code"`
	Staged      bool   `json:"staged"`
}

// CompanySummary is the result of the company report.
type CompanySummary struct {
	Totals    []model.SalesTotalsView
	ByCompany []model.SalesTotalsView
	ByUnit    []model.SalesTotalsView
	Staging   StagingOutcome
}

// DetailSummary is the result of a department, category, sub-category or
// vendor report.
type DetailSummary struct {
	Kind      model.ReportKind
	Dimension model.Dimension
	Rows      []model.BreakdownRow
	Amount    []model.ChartPoint
	Quantity  []model.ChartPoint
	Staging   StagingOutcome
}

// ReportService runs the staging procedures and aggregate queries of the
// sales reports.  Runs for the same user and staging table are serialised
// by Locker so that concurrent requests never read each other's staging.
type ReportService struct {
	Locker  Locker
	Timeout time.Duration
	Log     *logrus.Entry

	now func() time.Time
}

func NewReportService(locker Locker, timeout time.Duration, log *logrus.Logger) *ReportService {
	return &ReportService{Locker: locker, Timeout: timeout, Log: log.WithField("component", "report"), now: time.Now}
}

// plan is a validated ReportRequest.
type plan struct {
	user      string
	companies []string
	mode      string
	current   string
	from, to  string
}

func (s *ReportService) plan(req ReportRequest) (plan, error) {
	p := plan{user: req.Username}
	for _, c := range req.Companies {
		if c = strings.TrimSpace(c); c != "" {
			p.companies = append(p.companies, c)
		}
	}
	if len(p.companies) == 0 {
		return p, ErrNoCompanies
	}

	cur := s.now()
	if strings.TrimSpace(req.CurrentDate) != "" {
		d, err := utils.ParseDate(req.CurrentDate)
		if err != nil {
			return p, ErrBadDate
		}
		cur = d
	}
	p.current = utils.ProcDate(cur)

	hasFrom := strings.TrimSpace(req.FromDate) != ""
	hasTo := strings.TrimSpace(req.ToDate) != ""
	switch {
	case !hasFrom && !hasTo:
		p.mode = ModeCurrent
	case hasFrom && hasTo:
		from, err := utils.ParseDate(req.FromDate)
		if err != nil {
			return p, ErrBadDate
		}
		to, err := utils.ParseDate(req.ToDate)
		if err != nil {
			return p, ErrBadDate
		}
		if from.After(to) {
			from, to = to, from
		}
		p.mode = ModeRange
		p.from, p.to = utils.ProcDate(from), utils.ProcDate(to)
	default:
		p.mode = ModeSkipped
	}
	return p, nil
}

// withStaging validates req, takes the staging lock for st and the user,
// refreshes the staging rows and then calls fn while still holding the lock.
func (s *ReportService) withStaging(ctx context.Context, store ReportStore, st model.StagingType, req ReportRequest, fn func(ctx context.Context, p plan) error) (StagingOutcome, error) {
	p, err := s.plan(req)
	if err != nil {
		return StagingOutcome{}, err
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	unlock, err := s.Locker.Lock(ctx, fmt.Sprintf("staging:%s:%s", st.Table(), p.user))
	if err != nil {
		return StagingOutcome{}, wrap(ErrReport, err)
	}
	defer unlock()

	out := s.stage(ctx, store, st, p)
	if err := fn(ctx, p); err != nil {
		return out, wrap(ErrReport, err)
	}
	return out, nil
}

func (s *ReportService) stage(ctx context.Context, store ReportStore, st model.StagingType, p plan) StagingOutcome {
	log := s.Log.WithFields(logrus.Fields{"username": p.user, "type": string(st)})
	out := StagingOutcome{Cleared: true, Mode: p.mode, Companies: make([]CompanyOutcome, 0, len(p.companies))}

	if err := store.ClearStaging(ctx, st, p.user); err != nil {
		log.WithError(err).Error("clear staging failed")
		out.Cleared = false
	}
	for _, company := range p.companies {
		var err error
		switch p.mode {
		case ModeCurrent:
			err = store.StageCurrent(ctx, company, p.current, p.user, st)
		case ModeRange:
			err = store.StageRange(ctx, company, p.from, p.to, p.user, st)
		default:
			out.Companies = append(out.Companies, CompanyOutcome{CompanyCode: company})
			continue
		}
		if err != nil {
			log.WithError(err).WithField("company", company).Error("staging procedure failed")
		}
		out.Companies = append(out.Companies, CompanyOutcome{CompanyCode: company, Staged: err == nil})
	}
	if p.mode == ModeSkipped {
		log.Warn("only one of fromDate/toDate given; staging skipped")
	}
	return out
}

// CompanyReport builds the sales summary: overall totals, totals per
// company and totals per cashier point.
func (s *ReportService) CompanyReport(ctx context.Context, store ReportStore, req ReportRequest) (CompanySummary, error) {
	var res CompanySummary
	staging, err := s.withStaging(ctx, store, model.StagingSummary, req, func(ctx context.Context, p plan) error {
		tot, err := store.Totals(ctx, p.user, p.companies)
		if err != nil {
			return err
		}
		res.Totals = []model.SalesTotalsView{}
		if !tot.Empty() {
			res.Totals = append(res.Totals, tot.View())
		}
		byCompany, err := store.TotalsByCompany(ctx, p.user, p.companies)
		if err != nil {
			return err
		}
		res.ByCompany = views(byCompany)
		byUnit, err := store.TotalsByUnit(ctx, p.user, p.companies)
		if err != nil {
			return err
		}
		res.ByUnit = views(byUnit)
		return nil
	})
	res.Staging = staging
	return res, err
}

// DetailReport builds a breakdown report for kind, which must not be the
// company report.
func (s *ReportService) DetailReport(ctx context.Context, store ReportStore, kind model.ReportKind, req ReportRequest) (DetailSummary, error) {
	dim, ok := kind.Dimension()
	if !ok {
		return DetailSummary{}, fmt.Errorf("%w: %s report has no breakdown", ErrValidation, kind)
	}
	res := DetailSummary{Kind: kind, Dimension: dim}
	staging, err := s.withStaging(ctx, store, kind.Staging(), req, func(ctx context.Context, p plan) error {
		var err error
		if res.Rows, err = store.Breakdown(ctx, dim, p.user, p.companies); err != nil {
			return err
		}
		if res.Amount, err = store.AmountChart(ctx, dim, p.user, p.companies); err != nil {
			return err
		}
		res.Quantity, err = store.QuantityChart(ctx, dim, p.user, p.companies)
		return err
	})
	res.Staging = staging
	if res.Rows == nil {
		res.Rows = []model.BreakdownRow{}
	}
	if res.Amount == nil {
		res.Amount = []model.ChartPoint{}
	}
	if res.Quantity == nil {
		res.Quantity = []model.ChartPoint{}
	}
	return res, err
}

func views(rows []model.SalesTotals) []model.SalesTotalsView {
	out := make([]model.SalesTotalsView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.View())
	}
	return out
}
