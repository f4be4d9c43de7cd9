package checkin

import (
	"testing"
	"time"
)

func TestCheckInValidate(t *testing.T) {
	now := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	before := now.Add(-time.Minute)
	tests := []struct {
		name    string
		c       CheckIn
		wantErr bool
	}{
		{"valid active", CheckIn{MemberID: "m1", CheckInTime: now, Method: MethodQR, Status: StatusActive}, false},
		{"missing member", CheckIn{CheckInTime: now, Method: MethodQR, Status: StatusActive}, true},
		{"bad method", CheckIn{MemberID: "m1", CheckInTime: now, Method: "telepathy", Status: StatusActive}, true},
		{"completed without checkout", CheckIn{MemberID: "m1", CheckInTime: now, Method: MethodManual, Status: StatusCompleted}, true},
		{"checkout before checkin", CheckIn{MemberID: "m1", CheckInTime: now, CheckOutTime: &before, Method: MethodManual, Status: StatusCompleted}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckInComplete(t *testing.T) {
	in := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	c := CheckIn{MemberID: "m1", CheckInTime: in, Method: MethodRFID, Status: StatusActive}
	if err := c.Complete(in.Add(90 * time.Minute)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if c.IsActive() {
		t.Error("expected completed check-in")
	}
	if got := c.Duration(time.Time{}); got != 90*time.Minute {
		t.Errorf("Duration() = %v, want 90m", got)
	}
	if err := c.Complete(in); err != ErrAlreadyCompleted {
		t.Errorf("second Complete() error = %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() after Complete = %v", err)
	}
}

func TestCompleteClampsClockSkew(t *testing.T) {
	in := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	c := CheckIn{MemberID: "m1", CheckInTime: in, Method: MethodManual, Status: StatusActive}
	_ = c.Complete(in.Add(-time.Second))
	if !c.CheckOutTime.Equal(in) {
		t.Errorf("CheckOutTime = %v, want %v", c.CheckOutTime, in)
	}
}
