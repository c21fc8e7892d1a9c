package main

import (
	"testing"

	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/storage"
)

func TestStateColumn(t *testing.T) {
	const nq = 12
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"x3", 3, false},
		{"base_z", 2, false},
		{"v:base_z", nq + 2, false},
		{"left_knee", 8, false},
		{"left_ankle_pitch", 0, true},
		{"tail", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stateColumn(tt.name, nq)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectSeries(t *testing.T) {
	tr := &storage.Trace{
		Times:  []float64{0, 1},
		Phases: []horizon.Support{horizon.DoubleSupport, horizon.DoubleSupport},
		States: [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}},
	}
	series, err := selectSeries(tr, []string{"x1", "x3"})
	if err != nil {
		t.Fatal(err)
	}
	if series[0].Values[1] != 6 || series[1].Values[0] != 4 {
		t.Errorf("unexpected series %+v", series)
	}
	if _, err := selectSeries(tr, []string{"x9"}); err == nil {
		t.Error("expected an out of range error")
	}
	if _, err := selectSeries(&storage.Trace{}, []string{"x0"}); err == nil {
		t.Error("expected an error without data")
	}
}
