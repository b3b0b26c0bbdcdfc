package queue

import "testing"

func TestAckSucceeded(t *testing.T) {
	if !ackSucceeded(1) {
		t.Fatalf("expected ack with 1 row affected to succeed")
	}
	if ackSucceeded(0) {
		t.Fatalf("expected ack with 0 rows affected (mismatched/expired lease) to be reported as mismatch")
	}
}
