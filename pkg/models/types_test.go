package models

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFlexBool(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"false", false},
		{`"false"`, false},
		{`"False"`, false},
		{`"FALSE"`, false},
		{`"true"`, true},
		{`"yes"`, true}, // false 以外的字符串一律视为启用
	}
	for _, c := range cases {
		var b FlexBool
		if err := yaml.Unmarshal([]byte(c.in), &b); err != nil {
			t.Fatalf("unmarshal %s: %v", c.in, err)
		}
		if bool(b) != c.want {
			t.Errorf("FlexBool(%s) = %v, want %v", c.in, bool(b), c.want)
		}
	}

	var b FlexBool
	if err := yaml.Unmarshal([]byte("[1,2]"), &b); err == nil {
		t.Error("want error for non-scalar enabled value")
	}
}

func TestHostConfigLocal(t *testing.T) {
	for _, host := range []string{"", "localhost", "127.0.0.1"} {
		hc := &HostConfig{Host: host}
		if !hc.Local() {
			t.Errorf("host %q should be local", host)
		}
	}
	if (&HostConfig{Host: "192.168.1.10"}).Local() {
		t.Error("remote address misdetected as local")
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	src := `zeta:
  host: 192.168.1.20
alpha:
  host: 192.168.1.10
`
	var inv Inventory
	if err := yaml.Unmarshal([]byte(src), &inv); err != nil {
		t.Fatal(err)
	}
	if inv.Hosts[0].Name != "zeta" || inv.Hosts[1].Name != "alpha" {
		t.Fatalf("declaration order lost: %s, %s", inv.Hosts[0].Name, inv.Hosts[1].Name)
	}

	out, err := yaml.Marshal(inv)
	if err != nil {
		t.Fatal(err)
	}
	var back Inventory
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.Hosts[0].Name != "zeta" || back.Hosts[1].Name != "alpha" {
		t.Error("marshal does not preserve host order")
	}
}
