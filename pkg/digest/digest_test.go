package digest

import "testing"

func TestSignParamsDeterministic(t *testing.T) {
	params := map[string]string{
		"user":   "admin",
		"time":   "1700000000",
		"job_id": "j1",
	}
	a := SignParams(params, "secret")
	b := SignParams(params, "secret")
	if a != b {
		t.Fatalf("same input produced different digests: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", a)
	}
}

func TestSignParamsOrderIndependent(t *testing.T) {
	first := map[string]string{}
	first["alpha"] = "1"
	first["beta"] = "2"
	first["gamma"] = "3"

	second := map[string]string{}
	second["gamma"] = "3"
	second["alpha"] = "1"
	second["beta"] = "2"

	if SignParams(first, "k") != SignParams(second, "k") {
		t.Fatal("digest depends on parameter insertion order")
	}
}

func TestSignParamsKeyMatters(t *testing.T) {
	params := map[string]string{"user": "admin"}
	if SignParams(params, "one") == SignParams(params, "two") {
		t.Fatal("different keys produced the same digest")
	}
}

func TestSignParamsValueMatters(t *testing.T) {
	a := SignParams(map[string]string{"job_id": "j1"}, "k")
	b := SignParams(map[string]string{"job_id": "j2"}, "k")
	if a == b {
		t.Fatal("different parameters produced the same digest")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("abc", "abc") {
		t.Fatal("Equal rejected identical digests")
	}
	if Equal("abc", "abd") {
		t.Fatal("Equal accepted different digests")
	}
}
