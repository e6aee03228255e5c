package main

import "testing"

// The IPC protocol is the contract between the daemon, barpill-ctl, and the
// bar's bindings; every action type must survive the envelope.
func TestEventEnvelope_RoundTrip(t *testing.T) {
	events := []Event{
		PrimaryClick{},
		SecondaryClick{},
		Scroll{Steps: -3},
		SetVolumeAbsolute{Percent: 40, Origin: "ctl"},
	}

	for _, ev := range events {
		data, err := MarshalEvent(ev)
		if err != nil {
			t.Fatalf("marshal %T: %v", ev, err)
		}

		got, err := UnmarshalEvent(data)
		if err != nil {
			t.Fatalf("unmarshal %T: %v", ev, err)
		}

		if got != ev {
			t.Errorf("round trip changed %T: %+v -> %+v", ev, ev, got)
		}
	}
}

func TestUnmarshalEvent_RejectsUnknownType(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"type":"reboot"}`)); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
}
