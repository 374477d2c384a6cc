package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"luxc/lib/compile"
	"luxc/lib/curve"
	"luxc/lib/effect"
	"luxc/lib/fixture"
	"luxc/lib/markers"
	"luxc/lib/preview"
)

func main() {
	rigPath := flag.String("rig", "", "rig YAML file (required)")
	showPath := flag.String("show", "", "show JSON file (required)")
	outPath := flag.String("o", "", "output JSON file (default stdout)")
	previewPath := flag.String("preview", "", "also write a PNG strip chart")
	markersPath := flag.String("markers", "", "also write an SMF marker track")
	name := flag.String("name", "section", "section name for the marker track")
	flag.Parse()

	if *rigPath == "" || *showPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*rigPath, *showPath, *outPath, *previewPath, *markersPath, *name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rigPath, showPath, outPath, previewPath, markersPath, name string) error {
	rig, err := fixture.LoadRig(rigPath)
	if err != nil {
		return err
	}
	show, err := LoadShow(showPath)
	if err != nil {
		return err
	}

	c := &compile.Compiler{Rig: rig}
	compiled, err := c.CompileSection(show.Section, show.Effects, show.ChannelEffects)
	if err != nil {
		return err
	}

	if err := writeOutput(outPath, compiled); err != nil {
		return err
	}
	if previewPath != "" {
		if err := writePreview(previewPath, rig, compiled, show.Section); err != nil {
			return err
		}
	}
	if markersPath != "" {
		if err := writeMarkers(markersPath, name, show.Section, compiled); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, compiled []*effect.DmxEffect) error {
	buf, err := json.MarshalIndent(compiled, "", "  ")
	if err != nil {
		return err
	}
	buf = append(buf, '\n')
	if path == "" {
		_, err = os.Stdout.Write(buf)
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func writePreview(path string, rig *fixture.Rig, compiled []*effect.DmxEffect, section effect.Section) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return preview.WritePNG(f, rig, compiled, section, curve.SampleEvaluator{})
}

func writeMarkers(path, name string, section effect.Section, compiled []*effect.DmxEffect) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return markers.WriteSMF(f, name, section, compiled)
}
