package process

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/stepcheck/internal/adapters/logging"
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
	"github.com/felixgeelhaar/stepcheck/internal/domain/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	step  int
	field string
}

// fakeValidator answers from a per-field table and records every call.
type fakeValidator struct {
	mu       sync.Mutex
	calls    []call
	outcomes map[string]verify.Outcome
	gate     chan struct{}
}

func (f *fakeValidator) Validate(_ context.Context, step int, field string, _ *upload.File) verify.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, call{step: step, field: field})
	out, ok := f.outcomes[field]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return verify.Outcome{Passed: true, Message: "Validated: 1 u", Measurement: "1", Units: "u"}
	}
	return out
}

func (f *fakeValidator) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func testCatalog() *catalog.Catalog {
	return catalog.MustNewCatalog(
		catalog.Step{Title: "Preparation", Fields: []catalog.FieldName{"Scale", "Thermometer", "pH meter", "Timer"}},
		catalog.Step{Title: "Reaction", Fields: []catalog.FieldName{"Temperature"}},
		catalog.Step{Title: "Finish", Fields: []catalog.FieldName{"Temperature", "Yield"}},
	)
}

func newController(t *testing.T, v verify.Validator, gate GatingPolicy) *Controller {
	t.Helper()
	c, err := New(Config{
		Catalog:   testCatalog(),
		Policy:    upload.DefaultPolicy(),
		Validator: v,
		Logger:    logging.NewNopLogger(),
		Gate:      gate,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func png(name string) *upload.File {
	return upload.FromBytes(name, "image/png", []byte("png"))
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Catalog: testCatalog()})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestController_InitialState(t *testing.T) {
	t.Parallel()

	c := newController(t, &fakeValidator{}, nil)
	st := c.State()

	assert.Equal(t, 0, st.StepIndex)
	assert.Equal(t, 1, st.StepNumber())
	assert.Equal(t, PhaseActive, st.Phase)
	assert.False(t, st.Completed)
	assert.Equal(t, "Preparation", st.Step.Title)
	require.Len(t, st.Fields, 4)
	for _, f := range st.Fields {
		assert.False(t, f.HasFile)
		assert.Equal(t, fieldstore.StatusNone, f.Status.Kind)
	}
	assert.InDelta(t, 1.0/3.0, st.Progress, 1e-9)
}

func TestController_SelectFile(t *testing.T) {
	t.Parallel()

	c := newController(t, &fakeValidator{}, nil)
	ctx := context.Background()
	key := fieldstore.Key{Step: 0, Field: "Scale"}

	require.NoError(t, c.SelectFile(ctx, "scale", png("scale.png")))
	assert.Equal(t, "scale.png", c.Store().File(key).Name)
	assert.Equal(t, "File for Scale uploaded successfully.", c.Store().Status(key).Message)

	t.Run("too large keeps the previous file", func(t *testing.T) {
		big := upload.NewFile("huge.png", 6*1024*1024, "image/png", nil)
		err := c.SelectFile(ctx, "Scale", big)

		assert.ErrorIs(t, err, upload.ErrFileTooLarge)
		assert.Equal(t, "scale.png", c.Store().File(key).Name)
		assert.Equal(t, fieldstore.Status{
			Kind:    fieldstore.StatusError,
			Message: "File size exceeds 5 MB.",
			Reason:  upload.KindFileTooLarge,
		}, c.Store().Status(key))
	})

	t.Run("unsupported type", func(t *testing.T) {
		err := c.SelectFile(ctx, "Scale", upload.FromBytes("scale.gif", "image/gif", nil))

		assert.ErrorIs(t, err, upload.ErrUnsupportedType)
		assert.Equal(t, upload.MsgUnsupportedType, c.Store().Status(key).Message)
	})

	t.Run("empty selection", func(t *testing.T) {
		err := c.SelectFile(ctx, "Scale", nil)

		assert.ErrorIs(t, err, upload.ErrNoFileSelected)
		assert.Equal(t, "No file selected.", c.Store().Status(key).Message)
	})

	t.Run("accepting again clears the error", func(t *testing.T) {
		require.NoError(t, c.SelectFile(ctx, "Scale", png("scale2.png")))
		assert.Equal(t, fieldstore.StatusSuccess, c.Store().Status(key).Kind)
		assert.Equal(t, "scale2.png", c.Store().File(key).Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		err := c.SelectFile(ctx, "Yield", png("yield.png"))
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestController_Validate_MissingFile(t *testing.T) {
	t.Parallel()

	v := &fakeValidator{outcomes: map[string]verify.Outcome{
		"Thermometer": {Kind: upload.KindRemoteValidationRejected, Message: "Validation failed for Thermometer."},
	}}
	c := newController(t, v, nil)
	ctx := context.Background()

	for _, f := range []string{"Scale", "Thermometer", "pH meter"} {
		require.NoError(t, c.SelectFile(ctx, f, png(f+".png")))
	}

	res := c.Validate(ctx)

	assert.False(t, res.Passed)
	assert.False(t, res.Completed)
	require.Len(t, res.Fields, 4)
	assert.True(t, res.Fields[0].Passed)
	assert.False(t, res.Fields[1].Passed)
	assert.True(t, res.Fields[2].Passed)
	assert.Equal(t, upload.KindFileMissingAtValidationTime, res.Fields[3].Kind)
	assert.Len(t, v.Calls(), 3, "no call is made for a field without a file")

	store := c.Store()
	assert.Equal(t, fieldstore.Status{Kind: fieldstore.StatusSuccess, Message: "Validated: 1 u", Remote: true},
		store.Status(fieldstore.Key{Step: 0, Field: "Scale"}))
	assert.Equal(t, fieldstore.Status{
		Kind:    fieldstore.StatusValidationFailure,
		Message: "Validation failed for Thermometer.",
		Reason:  upload.KindRemoteValidationRejected,
	}, store.Status(fieldstore.Key{Step: 0, Field: "Thermometer"}))
	assert.Equal(t, fieldstore.Status{
		Kind:    fieldstore.StatusError,
		Message: "No file uploaded. Validation cannot be performed.",
		Reason:  upload.KindFileMissingAtValidationTime,
	}, store.Status(fieldstore.Key{Step: 0, Field: "Timer"}))
}

func TestController_Validate_AllPass(t *testing.T) {
	t.Parallel()

	v := &fakeValidator{}
	c := newController(t, v, AllFieldsValidated)
	ctx := context.Background()

	for _, f := range []string{"Scale", "Thermometer", "pH meter", "Timer"} {
		require.NoError(t, c.SelectFile(ctx, f, png(f+".png")))
	}
	assert.False(t, c.CanProceed(), "local acceptance is not remote validation")

	res := c.Validate(ctx)

	assert.True(t, res.Passed)
	calls := v.Calls()
	require.Len(t, calls, 4)
	for _, cl := range calls {
		assert.Equal(t, 1, cl.step, "step numbers are 1-based")
	}
	assert.True(t, c.CanProceed())
	assert.Equal(t, PhaseActive, c.State().Phase)
}

func TestController_Validate_Concurrent(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	v := &fakeValidator{gate: gate}
	c := newController(t, v, nil)
	ctx := context.Background()
	for _, f := range []string{"Scale", "Thermometer", "pH meter", "Timer"} {
		require.NoError(t, c.SelectFile(ctx, f, png(f+".png")))
	}

	done := make(chan Result)
	go func() { done <- c.Validate(ctx) }()

	// Every call is issued before any of them completes.
	require.Eventually(t, func() bool { return len(v.Calls()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PhaseValidating, c.State().Phase)
	for _, f := range c.State().Fields {
		assert.Equal(t, fieldstore.StatusNone, f.Status.Kind, "statuses are cleared while in flight")
	}

	close(gate)
	res := <-done
	assert.True(t, res.Passed)
	assert.Equal(t, PhaseActive, c.State().Phase)
}

func TestController_Validate_Overlapping(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	v := &fakeValidator{gate: gate}
	c := newController(t, v, nil)
	ctx := context.Background()
	require.NoError(t, c.SelectFile(ctx, "Scale", png("scale.png")))

	var finished atomic.Int32
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Validate(ctx)
			finished.Add(1)
		}()
	}

	require.Eventually(t, func() bool { return len(v.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, PhaseValidating, c.State().Phase)

	close(gate)
	wg.Wait()
	assert.Equal(t, int32(2), finished.Load())
	assert.Equal(t, PhaseActive, c.State().Phase)
}

func TestController_Validate_StepChangeDuringFlight(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	v := &fakeValidator{gate: gate}
	c := newController(t, v, nil)
	ctx := context.Background()
	require.NoError(t, c.SelectFile(ctx, "Scale", png("scale.png")))

	done := make(chan Result)
	go func() { done <- c.Validate(ctx) }()
	require.Eventually(t, func() bool { return len(v.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, c.Proceed())
	close(gate)
	res := <-done

	assert.Equal(t, 0, res.StepIndex)
	assert.Equal(t, fieldstore.StatusSuccess, c.Store().Status(fieldstore.Key{Step: 0, Field: "Scale"}).Kind)
	for _, f := range c.State().Fields {
		assert.Equal(t, fieldstore.StatusNone, f.Status.Kind, "the new step is untouched")
	}
}

func TestController_Proceed(t *testing.T) {
	t.Parallel()

	v := &fakeValidator{}
	c := newController(t, v, nil)

	// Advancing needs neither uploads nor a passing validation.
	assert.Equal(t, 1, c.Proceed())
	assert.Equal(t, 2, c.Proceed())
	assert.Equal(t, PhaseActive, c.State().Phase)

	assert.Equal(t, 3, c.Proceed())
	st := c.State()
	assert.True(t, st.Completed)
	assert.Equal(t, PhaseCompleted, st.Phase)
	assert.InDelta(t, 1.0, st.Progress, 0)
	assert.Empty(t, st.Fields)

	// No clamp past the end.
	assert.Equal(t, 4, c.Proceed())
	assert.Equal(t, 5, c.Proceed())
	assert.Equal(t, PhaseCompleted, c.State().Phase)

	res := c.Validate(context.Background())
	assert.True(t, res.Completed)
	assert.False(t, res.Passed)
	assert.Empty(t, v.Calls())

	assert.ErrorIs(t, c.SelectFile(context.Background(), "Scale", png("scale.png")), ErrNoActiveStep)
}

func TestController_FieldsAreStepScoped(t *testing.T) {
	t.Parallel()

	c := newController(t, &fakeValidator{}, nil)
	ctx := context.Background()

	c.Proceed()
	require.NoError(t, c.SelectFile(ctx, "Temperature", png("reaction.png")))
	c.Proceed()

	st := c.State()
	require.Equal(t, "Finish", st.Step.Title)
	assert.False(t, st.Fields[0].HasFile, "Temperature in step 3 is a different binding")
	assert.NotNil(t, c.Store().File(fieldstore.Key{Step: 1, Field: "Temperature"}))
}

func TestGatingPolicies(t *testing.T) {
	t.Parallel()

	remote := fieldstore.Status{Kind: fieldstore.StatusSuccess, Remote: true}
	local := fieldstore.Status{Kind: fieldstore.StatusSuccess}

	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"all remote successes", State{Fields: []FieldState{{Status: remote}, {Status: remote}}}, true},
		{"local acceptance only", State{Fields: []FieldState{{Status: remote}, {Status: local}}}, false},
		{"failure", State{Fields: []FieldState{{Status: fieldstore.Status{Kind: fieldstore.StatusValidationFailure}}}}, false},
		{"completed", State{Completed: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AllFieldsValidated(tt.state))
			assert.True(t, Ungated(tt.state))
		})
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.25, progress(0, 4), 1e-9)
	assert.InDelta(t, 1.0, progress(3, 4), 1e-9)
	assert.InDelta(t, 1.0, progress(9, 4), 1e-9)
	assert.InDelta(t, 1.0, progress(0, 0), 1e-9)
}
