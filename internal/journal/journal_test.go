package journal

import "testing"

func TestUpdateIsZero(t *testing.T) {
	cases := []struct {
		u    Update
		want bool
	}{
		{Update{}, true},
		{Update{EntityDelta: 1}, false},
		{Update{RecordDelta: -1}, false},
		{Update{RelationDelta: 1}, false},
		{Update{EntityDelta: 0, RecordDelta: 0, RelationDelta: 0}, true},
	}
	for _, c := range cases {
		if got := c.u.IsZero(); got != c.want {
			t.Errorf("IsZero(%+v) = %v, want %v", c.u, got, c.want)
		}
	}
}
