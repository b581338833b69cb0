// Package testutil holds assertion helpers and a fake telebot context shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertEqual fails the test immediately when want and got differ.
func AssertEqual(t testing.TB, want, got any) {
	t.Helper()
	require.Equal(t, want, got)
}

// AssertNoError fails the test immediately when err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertError fails the test immediately when err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	require.Error(t, err)
}
