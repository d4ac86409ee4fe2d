package encoder

import (
	"testing"

	"versereel/internal/progress"
)

func TestProgressState_UpdateFromLine(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		jobID       string
		durationSec float64
		wantOk      bool
		wantPercent float64
	}{
		{
			name: "half way",
			lines: []string{
				"out_time_ms=5000000",
				"speed=1.5x",
				"total_size=10485760",
				"progress=continue",
			},
			jobID:       "video-0",
			durationSec: 10.0,
			wantOk:      true,
			wantPercent: 50.0,
		},
		{
			name:        "unknown duration",
			lines:       []string{"speed=2.0x", "progress=continue"},
			jobID:       "video-1",
			durationSec: 0,
			wantOk:      true,
			wantPercent: -1.0,
		},
		{
			name:        "end forces completion",
			lines:       []string{"out_time_ms=9800000", "progress=end"},
			jobID:       "video-2",
			durationSec: 10.0,
			wantOk:      true,
			wantPercent: 100.0,
		},
		{
			name:        "overshoot is clamped",
			lines:       []string{"out_time_ms=12000000", "progress=continue"},
			jobID:       "video-3",
			durationSec: 10.0,
			wantOk:      true,
			wantPercent: 100.0,
		},
		{
			name:        "non-progress line",
			lines:       []string{"frame=100"},
			jobID:       "video-4",
			durationSec: 10.0,
			wantOk:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &ProgressState{}
			var u progress.Update
			var ok bool
			for _, line := range tt.lines {
				u, ok = ps.UpdateFromLine(line, tt.jobID, tt.durationSec)
			}
			if ok != tt.wantOk {
				t.Fatalf("UpdateFromLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if !tt.wantOk {
				return
			}
			if u.JobID != tt.jobID {
				t.Errorf("JobID = %v, want %v", u.JobID, tt.jobID)
			}
			if u.Stage != progress.StageEncoding {
				t.Errorf("Stage = %v, want %v", u.Stage, progress.StageEncoding)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
		})
	}
}

func TestProgressState_StateTracking(t *testing.T) {
	ps := &ProgressState{}

	ps.UpdateFromLine("out_time_ms=15000000", "video-0", 60.0)
	if ps.OutTimeMs != 15000000 {
		t.Errorf("OutTimeMs = %v, want 15000000", ps.OutTimeMs)
	}
	ps.UpdateFromLine("speed=1.2x", "video-0", 60.0)
	if ps.SpeedStr != "1.2x" {
		t.Errorf("SpeedStr = %v, want '1.2x'", ps.SpeedStr)
	}
	ps.UpdateFromLine("total_size=1048576", "video-0", 60.0)
	if ps.TotalSize != 1048576 {
		t.Errorf("TotalSize = %v, want 1048576", ps.TotalSize)
	}
}
