package shopify

import (
	"context"
	"fmt"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// MockSource is a mock implementation of service.CustomerSource for testing.
type MockSource struct {
	// FetchCustomersFn overrides the default page lookup when set.
	FetchCustomersFn func(ctx context.Context, cursor string) (*model.CustomerPage, error)

	// Call tracking
	FetchCustomersCalls []string

	pages []model.CustomerPage
}

// NewMockSource serves pages in order: the first for the empty cursor and
// each following page for the previous page's EndCursor.
func NewMockSource(pages ...model.CustomerPage) *MockSource {
	return &MockSource{
		pages:               pages,
		FetchCustomersCalls: []string{},
	}
}

// FetchCustomers implements service.CustomerSource.
func (m *MockSource) FetchCustomers(ctx context.Context, cursor string) (*model.CustomerPage, error) {
	m.FetchCustomersCalls = append(m.FetchCustomersCalls, cursor)

	if m.FetchCustomersFn != nil {
		return m.FetchCustomersFn(ctx, cursor)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(m.pages) == 0 {
		return &model.CustomerPage{}, nil
	}
	if cursor == "" {
		page := m.pages[0]
		return &page, nil
	}
	for i := 0; i < len(m.pages)-1; i++ {
		if m.pages[i].EndCursor == cursor {
			page := m.pages[i+1]
			return &page, nil
		}
	}
	return nil, fmt.Errorf("mock: unknown cursor %q", cursor)
}
