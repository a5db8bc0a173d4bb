package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/inventory"
	"github.com/quay/upgradeplan/planner"
)

// RunFile is the configuration of a planning run.
//
//	product:
//	  dir: /cdrom/cdrom0
//	environments:
//	  - dir: /
//	    flags: [basis]
//	  - dir: /export/root/client1
//	  - kind: service
//	    dir: /export/Solaris_9
//	    env: add_service
//	zones: true
//	mode: preserve
//	locales: [fr_CA]
//	datastore: /var/tmp/upgradeplan.db
type RunFile struct {
	// Product is the new product: a mounted media image or a snapshot of
	// one.
	Product Source `yaml:"product"`
	// Environments are the installed environments, not counting non-global
	// zones.
	Environments []Environment `yaml:"environments"`
	// Zones adds every upgradeable non-global zone of the local machine.
	Zones bool `yaml:"zones"`
	// Mode is the identical-package mode, "preserve" or "replace".
	Mode         string `yaml:"mode"`
	TemplateRoot string `yaml:"template_root"`
	// LocalArch overrides the architecture reported by the kernel.
	LocalArch string `yaml:"local_arch"`
	Diskless  bool   `yaml:"diskless"`
	// Locales and Geos are selected in every environment before planning.
	Locales []string `yaml:"locales"`
	Geos    []string `yaml:"geos"`
	// Datastore is where reports are stored: a postgres connection string
	// or an SQLite database file. Reports are only printed if empty.
	Datastore string `yaml:"datastore"`
	// ArticleID is the product registry ID recorded on every report. One is
	// generated if empty.
	ArticleID string `yaml:"article_id"`
}

// Source is where a product is read from. Exactly one of the fields is set.
type Source struct {
	// Dir is a mounted root: a media image or an installed root.
	Dir string `yaml:"dir"`
	// Snapshot is a file written by the "snapshot" command.
	Snapshot string `yaml:"snapshot"`
}

func (s *Source) validate(what string) error {
	switch {
	case s.Dir == "" && s.Snapshot == "":
		return fmt.Errorf("%s: one of dir or snapshot is required", what)
	case s.Dir != "" && s.Snapshot != "":
		return fmt.Errorf("%s: dir and snapshot are mutually exclusive", what)
	}
	return nil
}

// Environment is an installed environment.
type Environment struct {
	Source `yaml:",inline"`
	// Kind is "installed" (the default) or "service".
	Kind string `yaml:"kind"`
	// Zone names the non-global zone the environment is, if any.
	Zone string `yaml:"zone"`
	// Flags are any of "basis", "split", and "remove".
	Flags []string `yaml:"flags"`
	// Env is "upgrade" (the default) or "add_service".
	Env string `yaml:"env"`
}

// Media returns the planner's description of the environment, without its
// product.
func (e *Environment) Media() (*upgradeplan.Media, error) {
	m := upgradeplan.Media{
		Dir:  e.Dir,
		Zone: e.Zone,
	}
	if m.Dir == "" {
		m.Dir = e.Snapshot
	}
	switch strings.ToLower(e.Kind) {
	case "", "installed":
		m.Kind = upgradeplan.Installed
	case "service", "svc":
		m.Kind = upgradeplan.InstalledSvc
	default:
		return nil, fmt.Errorf("environment %s: unknown kind %q", m.Dir, e.Kind)
	}
	for _, f := range e.Flags {
		switch strings.ToLower(f) {
		case "basis":
			m.Flags |= upgradeplan.BasisOfUpgrade
		case "split":
			m.Flags |= upgradeplan.SplitFromServer
		case "remove":
			m.Flags |= upgradeplan.SvcToBeRemoved
		default:
			return nil, fmt.Errorf("environment %s: unknown flag %q", m.Dir, f)
		}
	}
	switch strings.ToLower(e.Env) {
	case "", "upgrade":
		m.Env = upgradeplan.EnvToBeUpgraded
	case "add_service":
		m.Env = upgradeplan.AddSvcToEnv
	default:
		return nil, fmt.Errorf("environment %s: unknown env %q", m.Dir, e.Env)
	}
	return &m, nil
}

// ReadRunFile decodes and validates a run file.
func ReadRunFile(r io.Reader) (*RunFile, error) {
	var rf RunFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	switch err := dec.Decode(&rf); {
	case errors.Is(err, nil):
	case errors.Is(err, io.EOF):
		return nil, errors.New("run file is empty")
	default:
		return nil, fmt.Errorf("run file: %w", err)
	}
	if err := rf.validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

func loadRunFile(name string) (*RunFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRunFile(f)
}

func (rf *RunFile) validate() error {
	if err := rf.Product.validate("product"); err != nil {
		return err
	}
	if len(rf.Environments) == 0 && !rf.Zones {
		return errors.New("run file: no environments to plan")
	}
	for i := range rf.Environments {
		e := &rf.Environments[i]
		if err := e.validate(fmt.Sprintf("environment %d", i)); err != nil {
			return err
		}
		if _, err := e.Media(); err != nil {
			return err
		}
	}
	if _, err := planner.ParseMode(rf.Mode); err != nil {
		return err
	}
	for _, l := range rf.Locales {
		if err := planner.ValidLocale(l); err != nil {
			return fmt.Errorf("run file: locale %q: %w", l, err)
		}
	}
	if rf.ArticleID != "" && !inventory.ValidRegistryID(rf.ArticleID) {
		return fmt.Errorf("run file: malformed article_id %q", rf.ArticleID)
	}
	return nil
}

// Options returns the planner options the run file describes.
func (rf *RunFile) Options() *planner.Options {
	mode, _ := planner.ParseMode(rf.Mode)
	return &planner.Options{
		Mode:         mode,
		TemplateRoot: rf.TemplateRoot,
		LocalArch:    rf.LocalArch,
		Diskless:     rf.Diskless,
	}
}
