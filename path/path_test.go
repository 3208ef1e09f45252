package path

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextComponent(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		wantName string
		wantFin  Finality
	}{
		{"simple", "foo/bar", "foo", NotFinal},
		{"final no slash", "bar", "bar", FinalNormal},
		{"final with slash", "bar/", "bar", FinalSlash},
		{"leading slashes collapsed", "///foo", "foo", FinalNormal},
		{"interior slashes collapsed", "foo///bar", "foo", NotFinal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, _, finality, kind := NextComponent([]byte(tc.input), 0)
			require.False(t, kind.Fail())
			require.Equal(t, tc.wantName, name)
			require.Equal(t, tc.wantFin, finality)
		})
	}
}

func TestNextComponentNameTooLong(t *testing.T) {
	long := make([]byte, NameMax+1)
	for i := range long {
		long[i] = 'a'
	}
	_, _, _, kind := NextComponent(long, 0)
	require.True(t, kind.Fail())
}

func TestHasMore(t *testing.T) {
	require.False(t, HasMore([]byte("")))
	require.False(t, HasMore([]byte("/")))
	require.False(t, HasMore([]byte("///")))
	require.True(t, HasMore([]byte("/foo")))
	require.True(t, HasMore([]byte("foo")))
}

func TestCompare(t *testing.T) {
	cases := []struct {
		p1, p2 string
		want   Comparison
	}{
		{"/foo", "/foo", Equal},
		{"/foo", "/foo/", Equal},
		{"/foo", "/foo/bar", Path1IsPrefix},
		{"/foo/bar", "/foo", Path2IsPrefix},
		{"/foo", "/foobar", NotComparable},
		{"/foobar", "/foo", NotComparable},
		{"/", "/", Equal},
	}
	for _, tc := range cases {
		t.Run(tc.p1+"_"+tc.p2, func(t *testing.T) {
			require.Equal(t, tc.want, Compare(tc.p1, tc.p2))
		})
	}
}

func TestJoin(t *testing.T) {
	cases := []struct {
		frags []string
		want  string
	}{
		{[]string{"/a", "b"}, "/a/b"},
		{[]string{"/a/", "/b"}, "/a/b"},
		{[]string{"/a", "", "b"}, "/a/b"},
		{[]string{"/"}, "/"},
	}
	for _, tc := range cases {
		got, kind := Join(tc.frags...)
		require.False(t, kind.Fail())
		require.Equal(t, tc.want, got)
	}
}

func TestIsAbs(t *testing.T) {
	require.True(t, IsAbs("/foo"))
	require.False(t, IsAbs("foo"))
	require.False(t, IsAbs(""))
}
