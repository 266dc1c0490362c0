package report

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campark/internal/engine"
	"campark/internal/model"
	"campark/internal/occupancy"
)

type fixedSource struct{ remaining int }

func (f fixedSource) Remaining(context.Context, string, string, string, occupancy.TimeRange) (int, error) {
	return f.remaining, nil
}

// fakeWriter records everything written to it.
type fakeWriter struct {
	sheets  []string
	headers [][]string
	rows    map[string][][]interface{}
	current string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{rows: make(map[string][][]interface{})}
}

func (f *fakeWriter) AddSheet(name string) error {
	f.sheets = append(f.sheets, name)
	f.current = name
	return nil
}

func (f *fakeWriter) WriteHeader(columns []string) error {
	f.headers = append(f.headers, columns)
	return nil
}

func (f *fakeWriter) WriteRow(row []interface{}) error {
	f.rows[f.current] = append(f.rows[f.current], row)
	return nil
}

func (f *fakeWriter) Save(io.Writer) error    { return nil }
func (f *fakeWriter) SaveToFile(string) error { return nil }

func testEngine() *engine.Engine {
	lots := []model.Lot{{
		ID:             "lot1",
		Name:           "Library Complex Garage",
		Capacity:       model.CapacityByType{Normal: 80},
		Available:      model.CapacityByType{Normal: 40},
		Floors:         []string{"F1", "F2"},
		SupportedTypes: []model.VehicleType{model.VehicleNormal},
		Schedule: []model.ScheduleRule{
			{CronOpen: "0 8 * * *", CronClose: "0 20 * * *"},
		},
	}}
	eng := engine.New(lots, fixedSource{remaining: 5}, nil, nil, engine.Options{})
	eng.SetClock(func() time.Time {
		return time.Date(2026, 8, 24, 7, 0, 0, 0, time.UTC)
	})
	return eng
}

func TestExport(t *testing.T) {
	eng := testEngine()
	w := newFakeWriter()

	require.NoError(t, NewExporter(eng, nil).Export(context.Background(), w))

	require.Equal(t, []string{"Library Complex Garage"}, w.sheets)
	require.Len(t, w.headers, 1)
	assert.Equal(t, "Date", w.headers[0][0])

	// Three days of twelve hourly slots each.
	rows := w.rows["Library Complex Garage"]
	require.Len(t, rows, 36)
	assert.Equal(t, "2026-08-24", rows[0][0])
	assert.Equal(t, "08:00 - 09:00", rows[0][1])
	assert.Equal(t, 5, rows[0][2])
}

func TestExport_WithObservations(t *testing.T) {
	store, err := occupancy.NewStore(t.TempDir() + "/occupancy.db")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, "lot1", "F1", "Zone A", 7, time.Now().Add(-time.Hour)))

	eng := testEngine()
	w := newFakeWriter()
	require.NoError(t, NewExporter(eng, store).Export(ctx, w))

	require.Len(t, w.sheets, 2)
	assert.Equal(t, "Observations", w.sheets[1])
	require.Len(t, w.rows["Observations"], 1)
	assert.Equal(t, "lot1", w.rows["Observations"][0][0])
}

func TestExport_FlowsAreTransient(t *testing.T) {
	eng := testEngine()
	require.NoError(t, NewExporter(eng, nil).Export(context.Background(), newFakeWriter()))

	// The exporter's temp flows do not leak.
	lot := eng.Lots()[0]
	flow, err := eng.StartFlow(context.Background(), lot.ID, model.VehicleNormal)
	require.NoError(t, err)
	eng.EndFlow(flow.ID)
}
