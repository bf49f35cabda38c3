package util

import "testing"

func TestParseIntDefault(t *testing.T) {
    if got := ParseIntDefault("", 500); got != 500 {
        t.Fatalf("empty string: got %d", got)
    }
    if got := ParseIntDefault("abc", 500); got != 500 {
        t.Fatalf("invalid string: got %d", got)
    }
    if got := ParseIntDefault("42", 500); got != 42 {
        t.Fatalf("valid string: got %d", got)
    }
}

func TestParseBoolDefault(t *testing.T) {
    if got := ParseBoolDefault("", true); got != true {
        t.Fatalf("empty string should return default")
    }
    if got := ParseBoolDefault("1", false); got != true {
        t.Fatalf("\"1\" should parse true")
    }
    if got := ParseBoolDefault("true", false); got != true {
        t.Fatalf("\"true\" should parse true")
    }
    if got := ParseBoolDefault("nope", false); got != false {
        t.Fatalf("invalid string should return default")
    }
}
