// Hand-written in the shape of MockGen output for the Adapter interface
// in internal/provider/adapter.go.

package providermock

import (
	"context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

// MockAdapter is a mock of the Adapter interface, used by the router
// kernel's tests to control provider behavior deterministically.
type MockAdapter struct {
	ctrl     *gomock.Controller
	recorder *MockAdapterMockRecorder
}

// MockAdapterMockRecorder is the mock recorder for MockAdapter.
type MockAdapterMockRecorder struct {
	mock *MockAdapter
}

// NewMockAdapter creates a new mock instance.
func NewMockAdapter(ctrl *gomock.Controller) *MockAdapter {
	mock := &MockAdapter{ctrl: ctrl}
	mock.recorder = &MockAdapterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAdapter) EXPECT() *MockAdapterMockRecorder {
	return m.recorder
}

// Name mocks base method.
func (m *MockAdapter) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(string)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockAdapterMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockAdapter)(nil).Name))
}

// Priority mocks base method.
func (m *MockAdapter) Priority() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Priority")
	ret0, _ := ret[0].(int)
	return ret0
}

// Priority indicates an expected call of Priority.
func (mr *MockAdapterMockRecorder) Priority() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Priority", reflect.TypeOf((*MockAdapter)(nil).Priority))
}

// CostPerToken mocks base method.
func (m *MockAdapter) CostPerToken() float64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CostPerToken")
	ret0, _ := ret[0].(float64)
	return ret0
}

// CostPerToken indicates an expected call of CostPerToken.
func (mr *MockAdapterMockRecorder) CostPerToken() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CostPerToken", reflect.TypeOf((*MockAdapter)(nil).CostPerToken))
}

// Generate mocks base method.
func (m *MockAdapter) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate", ctx, prompt, opts)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Generate indicates an expected call of Generate.
func (mr *MockAdapterMockRecorder) Generate(ctx, prompt, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockAdapter)(nil).Generate), ctx, prompt, opts)
}

// CheckHealth mocks base method.
func (m *MockAdapter) CheckHealth(ctx context.Context) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckHealth", ctx)
	ret0, _ := ret[0].(bool)
	return ret0
}

// CheckHealth indicates an expected call of CheckHealth.
func (mr *MockAdapterMockRecorder) CheckHealth(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckHealth", reflect.TypeOf((*MockAdapter)(nil).CheckHealth), ctx)
}
