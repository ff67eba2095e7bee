package main

import "testing"

func TestMigrateCmd_HasUpAndStatus(t *testing.T) {
	cmd := migrateCmd()

	sub := make(map[string]bool)
	for _, c := range cmd.Commands() {
		sub[c.Name()] = true
	}
	for _, name := range []string{"up", "status"} {
		if !sub[name] {
			t.Errorf("migrate is missing the %q subcommand", name)
		}
	}
}

func TestMigrateUp_DefaultsToMigrationsDir(t *testing.T) {
	cmd := migrateCmd()
	for _, c := range cmd.Commands() {
		flag := c.Flags().Lookup("dir")
		if flag == nil {
			t.Errorf("%s has no --dir flag", c.Name())
			continue
		}
		if flag.DefValue != "./migrations" {
			t.Errorf("%s --dir default = %q, want ./migrations", c.Name(), flag.DefValue)
		}
	}
}

func TestSuperadminCreate_RequiresCredentialFlags(t *testing.T) {
	cmd := superadminCmd()

	var create bool
	for _, c := range cmd.Commands() {
		if c.Name() != "create" {
			continue
		}
		create = true
		for _, name := range []string{"email", "password", "name"} {
			if c.Flags().Lookup(name) == nil {
				t.Errorf("superadmin create is missing the --%s flag", name)
			}
		}
	}
	if !create {
		t.Fatal("superadmin is missing the create subcommand")
	}
}

func TestServeCmd_Exists(t *testing.T) {
	if serveCmd().Name() != "serve" {
		t.Error("serve command not constructed")
	}
}
