package cmd

import (
	"testing"
)

func TestNewStatusCmdMetadata(t *testing.T) {
	c := newStatusCmd()
	if c.Use != "status" {
		t.Errorf("expected Use 'status', got %q", c.Use)
	}
	if c.RunE == nil {
		t.Error("expected RunE to be set")
	}
	if flag := c.Flags().Lookup("output"); flag == nil {
		t.Error("expected an --output flag")
	} else if flag.DefValue != "table" {
		t.Errorf("expected --output default 'table', got %q", flag.DefValue)
	}
}

func TestNewStartCmdMetadata(t *testing.T) {
	c := newStartCmd()
	if c.Use != "start <application>" {
		t.Errorf("expected Use 'start <application>', got %q", c.Use)
	}
	if c.RunE == nil {
		t.Error("expected RunE to be set")
	}
}

func TestNewStopCmdMetadata(t *testing.T) {
	c := newStopCmd()
	if c.Use != "stop <application>" {
		t.Errorf("expected Use 'stop <application>', got %q", c.Use)
	}
}

func TestNewConciliateCmdMetadata(t *testing.T) {
	c := newConciliateCmd()
	if c.Use == "" {
		t.Error("expected Use to be set")
	}
	if err := c.Args(c, []string{"one"}); err == nil {
		t.Error("expected ExactArgs(2) to reject a single argument")
	}
	if err := c.Args(c, []string{"web:api", "node-1"}); err != nil {
		t.Errorf("expected two arguments to be accepted, got %v", err)
	}
}

func TestNewAddressCmdHasListSubcommand(t *testing.T) {
	c := newAddressCmd()
	found := false
	for _, sub := range c.Commands() {
		if sub.Name() == "list" {
			found = true
		}
	}
	if !found {
		t.Error("expected address command to have a list subcommand")
	}
}

func TestNewShellCmdMetadata(t *testing.T) {
	c := newShellCmd()
	if c.Use != "shell" {
		t.Errorf("expected Use 'shell', got %q", c.Use)
	}
}
