package probe

import "testing"

func TestPrimaryAddress(t *testing.T) {
	cases := []struct {
		name  string
		addrs []string
		want  string
	}{
		{"ipv4 preferred over ipv6", []string{"fe80::1/64", "192.168.1.10/24"}, "192.168.1.10"},
		{"first ipv4 wins", []string{"10.0.0.1/8", "192.168.1.10/24"}, "10.0.0.1"},
		{"ipv6 fallback", []string{"fe80::1/64", "2001:db8::2/64"}, "fe80::1"},
		{"bare address without mask", []string{"172.16.0.5"}, "172.16.0.5"},
		{"empty list", nil, ""},
		{"empty entries skipped", []string{"", "/24", "192.168.0.1/16"}, "192.168.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := primaryAddress(tc.addrs); got != tc.want {
				t.Errorf("primaryAddress(%v) = %q, want %q", tc.addrs, got, tc.want)
			}
		})
	}
}
