package reportctx

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveObject struct {
	Name   string
	secret func() string
}

type severityCode string

func TestSanitizePrimitives(t *testing.T) {
	assert.Equal(t, Null(), Sanitize(nil))
	assert.Equal(t, String("x"), Sanitize("x"))
	assert.Equal(t, Int(7), Sanitize(7))
	assert.Equal(t, Int(7), Sanitize(uint16(7)))
	assert.Equal(t, Float(2.5), Sanitize(float32(2.5)))
	assert.Equal(t, Bool(true), Sanitize(true))
	assert.Equal(t, String("HIGH"), Sanitize(severityCode("HIGH")))
}

type counter uint64

func TestSanitizeLargeUnsigned(t *testing.T) {
	assert.Equal(t, Int(math.MaxInt64), Sanitize(uint64(math.MaxInt64)))
	assert.Equal(t, String("18446744073709551615"), Sanitize(uint64(math.MaxUint64)))
	assert.Equal(t, String("9223372036854775808"), Sanitize(uint(math.MaxInt64)+1))
	assert.Equal(t, String("18446744073709551615"), Sanitize(counter(math.MaxUint64)), "named type goes through reflection")

	v := Sanitize(uint64(math.MaxUint64))
	assert.Equal(t, v, Sanitize(v.Native()))
}

func TestSanitizeCoercesUnknownTypes(t *testing.T) {
	id := uuid.MustParse("6f1c1d2e-8c55-4b8e-9d4b-1f3f1b2a9c10")
	assert.Equal(t, String(id.String()), Sanitize(id))
	assert.Equal(t, String("boom"), Sanitize(errors.New("boom")))

	v := Sanitize(liveObject{Name: "db-handle"})
	require.Equal(t, KindString, v.Kind())
	assert.Contains(t, v.Str(), "db-handle")

	ts := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, KindString, Sanitize(ts).Kind())

	var nilPtr *liveObject
	assert.Equal(t, Null(), Sanitize(nilPtr))

	n := 3
	assert.Equal(t, Int(3), Sanitize(&n))
	assert.Equal(t, KindString, Sanitize(&liveObject{Name: "p"}).Kind())
}

func TestSanitizeContainers(t *testing.T) {
	v := Sanitize(map[int][]string{1: {"a", "b"}})
	require.Equal(t, KindMap, v.Kind())
	assert.Equal(t, []string{"1"}, v.Keys())
	assert.Equal(t, List(String("a"), String("b")), v.Get("1"))

	var empty []int
	assert.Equal(t, List(), Sanitize(empty))
	assert.Equal(t, List(), Sanitize([]any{}))
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{
		"title":   "SQL injection",
		"count":   3,
		"score":   9.8,
		"ok":      false,
		"missing": nil,
		"tags":    []string{"web", "db"},
		"nested": map[string]any{
			"obj":   liveObject{Name: "x"},
			"empty": []any{},
			"ids":   []uuid.UUID{uuid.Nil},
		},
	}

	once := Sanitize(in)
	assert.Equal(t, once, Sanitize(once))
	assert.Equal(t, once, Sanitize(once.Native()))

	ctx := SanitizeMap(in)
	assert.Equal(t, ctx, SanitizeContext(ctx))
}

func TestSanitizeDeepCopies(t *testing.T) {
	orig := Map(map[string]Value{"list": List(String("a"))})
	cp := Sanitize(orig)
	items := cp.Get("list").Items()
	items[0] = String("changed")

	assert.Equal(t, "a", orig.Get("list").Items()[0].Str())
}

func TestNative(t *testing.T) {
	ctx := Context{
		"n":    Int(2),
		"list": List(String("a"), Null()),
		"map":  Map(map[string]Value{"f": Float(1.5)}),
	}
	got := ctx.Native()

	assert.Equal(t, 2, got["n"])
	assert.Equal(t, []any{"a", nil}, got["list"])
	assert.Equal(t, map[string]any{"f": 1.5}, got["map"])
}
