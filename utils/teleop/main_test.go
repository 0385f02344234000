package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quadwalker/quadruped/link"
)

func TestCommand(t *testing.T) {
	type eg struct {
		fwd, right, rot, delay, steps int
		exp                           link.Command
	}

	examples := []eg{
		{0, 0, 0, 0, 0, link.Command{}},
		{10, -5, 2, 50, 3, link.Command{Forward: 10, Right: -5, Rotation: 2, DelayMs: 50, StepCount: 3}},
		{99, 99, 99, 999, 99, link.Command{Forward: 35, Right: 11, Rotation: 5, DelayMs: 200, StepCount: 10}},
		{-99, -99, -99, -1, -1, link.Command{Forward: -35, Right: -11, Rotation: -5, DelayMs: 0, StepCount: 0}},
	}

	for _, eg := range examples {
		assert.Equal(t, eg.exp, command(eg.fwd, eg.right, eg.rot, eg.delay, eg.steps))
	}
}
