// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package cmdutil

import (
	"bytes"
	"io"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type cmdutilSuite struct{}

var _ = check.Suite(&cmdutilSuite{})

func (s *cmdutilSuite) TestDispatchesToNamedHandler(c *check.C) {
	var gotProg string
	var gotArgs []string
	h := Multi(map[string]Handler{
		"greet": HandlerFunc(func(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
			gotProg, gotArgs = prog, args
			io.WriteString(stdout, "hi")
			return 0
		}),
	})
	var out bytes.Buffer
	rc := h.RunCommand("qctool", []string{"greet", "-x"}, nil, &out, &bytes.Buffer{})
	c.Check(rc, check.Equals, 0)
	c.Check(gotProg, check.Equals, "qctool greet")
	c.Check(gotArgs, check.DeepEquals, []string{"-x"})
	c.Check(out.String(), check.Equals, "hi")
}

func (s *cmdutilSuite) TestUnknownCommandReturns2(c *check.C) {
	h := Multi(map[string]Handler{"known": HandlerFunc(func(string, []string, io.Reader, io.Writer, io.Writer) int { return 0 })})
	var stderr bytes.Buffer
	rc := h.RunCommand("qctool", []string{"nope"}, nil, &bytes.Buffer{}, &stderr)
	c.Check(rc, check.Equals, 2)
	c.Check(stderr.Len() > 0, check.Equals, true)
}

func (s *cmdutilSuite) TestNoArgsPrintsUsage(c *check.C) {
	h := Multi(map[string]Handler{"known": HandlerFunc(func(string, []string, io.Reader, io.Writer, io.Writer) int { return 0 })})
	var stderr bytes.Buffer
	rc := h.RunCommand("qctool", nil, nil, &bytes.Buffer{}, &stderr)
	c.Check(rc, check.Equals, 2)
	c.Check(stderr.String(), check.Matches, "(?s).*known.*")
}
