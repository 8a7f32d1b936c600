package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/mediaplan-go/internal/aggregate"
	"github.com/AngelCh415/mediaplan-go/internal/models"
	"github.com/AngelCh415/mediaplan-go/internal/store"
)

var (
	ErrNoDataset    = errors.New("no dataset loaded")
	ErrUnknownPanel = errors.New("unknown panel")
)

type Service struct {
	st   *store.MemoryStore
	topN int
}

func NewService(st *store.MemoryStore, topN int) *Service {
	if topN <= 0 {
		topN = aggregate.DefaultTopN
	}
	return &Service{st: st, topN: topN}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Dashboard recomputes every panel from the current snapshot.
func (s *Service) Dashboard(ctx context.Context) (models.Dashboard, error) {
	ds, ok := s.st.Current()
	if !ok {
		return models.Dashboard{}, ErrNoDataset
	}
	d, err := aggregate.BuildDashboard(ctx, ds.Records, s.topN)
	if err != nil {
		return models.Dashboard{}, err
	}
	d.DatasetID = ds.ID
	return d, nil
}

// Panel computes one named panel. Query: top (overrides the top-N cut),
// limit, offset.
func (s *Service) Panel(name string, v url.Values) ([]models.Entry, error) {
	p, ok := aggregate.Panel(norm(name))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, name)
	}
	ds, ok := s.st.Current()
	if !ok {
		return nil, ErrNoDataset
	}
	top := atoiDef(v.Get("top"), s.topN)
	if top <= 0 {
		top = s.topN
	}
	limit := atoiDef(v.Get("limit"), 0)
	offset := atoiDef(v.Get("offset"), 0)

	rows := p(ds.Records, top)
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return paginate(rows, limit, offset), nil
}

func (s *Service) Matrix() ([]models.MatrixPoint, error) {
	ds, ok := s.st.Current()
	if !ok {
		return nil, ErrNoDataset
	}
	return aggregate.Matrix(ds.Records), nil
}

func (s *Service) KPI() (models.KPISummary, error) {
	ds, ok := s.st.Current()
	if !ok {
		return models.KPISummary{}, ErrNoDataset
	}
	return aggregate.KPISummary(ds.Records), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
