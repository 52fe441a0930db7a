package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(answers ...string) passwordReader {
	return func(string) (string, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
}

func TestChoosePassword(t *testing.T) {
	password, err := choosePassword(scripted("s3cretpass", "s3cretpass"))
	require.NoError(t, err)
	assert.Equal(t, "s3cretpass", password)

	_, err = choosePassword(scripted("s3cretpass", "s3cretpasz"))
	assert.ErrorIs(t, err, errPasswordMismatch)

	_, err = choosePassword(scripted("short"))
	assert.ErrorContains(t, err, "password must be at least")
}

func TestAcademicMonths(t *testing.T) {
	start, end, err := academicMonths("JUN-MAY")
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5}, []int{start, end})

	_, _, err = academicMonths("jan-dec")
	assert.Error(t, err)
}
