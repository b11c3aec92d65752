// Package assemble builds the top-level print job script from a recipe
// and the resolved print zones. The job document initializes the tool,
// declares the writing configuration and the exposure parameters shared
// by every zone, then visits each zone in resolved order with a stage
// move followed by an include of its sliced data fragment.
//
// Stage moves are deltas from the previous zone origin, starting from
// the position the caller supplies, so the document replays the
// resolved order exactly. Nothing here reorders zones or optimizes
// travel.
package assemble

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/gwl"
	"github.com/nanofab/descript/pkg/recipe"
	"github.com/nanofab/descript/pkg/transform"
)

// Zone is one print zone of the job: a resolved cell placement paired
// with the sliced fragment that prints it.
type Zone struct {
	// Cell names the print cell, used in the zone comment.
	Cell string
	// Origin is the absolute stage position of the placement, in
	// micrometers.
	Origin transform.Vec2
	// Include is the path of the sliced data fragment for this zone.
	Include string
}

// Job describes one print job to assemble.
type Job struct {
	// Recipe supplies the writing configuration and the exposure
	// parameters of the preamble.
	Recipe *recipe.Recipe
	// Zones lists the print zones in resolved order.
	Zones []Zone
	// Start is the stage position before the first move. The first
	// zone moves relative to it.
	Start transform.Vec2
	// OutDir is the directory the job file will be written to.
	// Fragments under it are included by relative path; any other
	// fragment keeps its own path and logs a warning.
	OutDir string
	// FieldOffsets re-asserts zero scan field offsets in the
	// preamble. NanoWrite keeps offsets across jobs, so jobs that
	// must not inherit them set this.
	FieldOffsets bool

	Logger *log.Logger
}

// Build assembles the print job document. The recipe's scan mode is
// validated before anything is emitted, so a document is either
// complete or absent.
func Build(job Job) (*gwl.Document, error) {
	if job.Recipe == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "print job wants a recipe")
	}
	if len(job.Zones) == 0 {
		return nil, errors.New(errors.ErrCodeNoTargets, "print job has no print zones")
	}
	mode, err := job.Recipe.ScanMode()
	if err != nil {
		return nil, err
	}

	doc := gwl.NewDocument()
	doc.Append(gwl.Comment("File generated by descript"))
	systemInitialization(doc, job.Recipe)
	doc.Append(gwl.Empty())
	writingConfiguration(doc, job.Recipe, mode)
	if job.FieldOffsets {
		doc.Append(gwl.Empty())
		fieldOffsets(doc)
	}
	doc.Append(gwl.Empty())
	if err := writingParameters(doc, job.Recipe); err != nil {
		return nil, err
	}
	if err := printZones(doc, job); err != nil {
		return nil, err
	}
	return doc, nil
}

func systemInitialization(doc *gwl.Document, rcp *recipe.Recipe) {
	invert := 0
	if rcp.Bool(recipe.KeyOutputInvertZAxis) {
		invert = 1
	}
	doc.Append(
		gwl.Comment("System initialization"),
		gwl.Int(gwl.KindInvertZAxis, invert),
	)
}

func writingConfiguration(doc *gwl.Document, rcp *recipe.Recipe, mode string) {
	scan := gwl.KindGalvoScanMode
	if mode == recipe.ScanModePiezo {
		scan = gwl.KindPiezoScanMode
	}
	doc.Append(
		gwl.Comment("Writing configuration"),
		gwl.New(scan),
		gwl.New(gwl.KindContinuousMode),
		gwl.Float(gwl.KindPiezoSettlingTime, 10),
		gwl.Float(gwl.KindGalvoAcceleration, rcp.Float(recipe.KeyExposureGalvoAcceleration)),
		gwl.Int(gwl.KindStageVelocity, 20000),
	)
}

func fieldOffsets(doc *gwl.Document) {
	doc.Append(
		gwl.Comment("Scan field offsets"),
		gwl.Float(gwl.KindXOffset, 0),
		gwl.Float(gwl.KindYOffset, 0),
		gwl.Float(gwl.KindZOffset, 0),
	)
}

// jobParam binds one GWL job variable to the recipe entry that feeds
// it. The sliced fragments reference these variables, so the names are
// part of the DeScribe contract.
type jobParam struct {
	name string
	key  string
}

var contourParams = []jobParam{
	{"$contourLaserPower", recipe.KeyExposureShellLaserPower},
	{"$contourScanSpeed", recipe.KeyExposureShellScanSpeed},
}

var solidParams = []jobParam{
	{"$solidLaserPower", recipe.KeyExposureCoreLaserPower},
	{"$solidScanSpeed", recipe.KeyExposureCoreScanSpeed},
	{"$interfacePos", recipe.KeyExposureFindInterfaceAt},
}

func writingParameters(doc *gwl.Document, rcp *recipe.Recipe) error {
	doc.Append(
		gwl.Comment("Writing parameters"),
		gwl.Float(gwl.KindPowerScaling, 1),
		gwl.Empty(),
		gwl.Comment("Contour writing parameters"),
	)
	if err := appendParams(doc, rcp, contourParams); err != nil {
		return err
	}
	doc.Append(
		gwl.Empty(),
		gwl.Comment("Solid hatch lines writing parameters"),
	)
	return appendParams(doc, rcp, solidParams)
}

func appendParams(doc *gwl.Document, rcp *recipe.Recipe, params []jobParam) error {
	for _, p := range params {
		v, err := rcp.Get(p.key)
		if err != nil {
			return err
		}
		in, err := gwl.Assign(gwl.KindVar, p.name, gwlValue(v))
		if err != nil {
			return err
		}
		doc.Append(in)
	}
	return nil
}

// gwlValue converts a recipe entry to an assignment literal, keeping
// integer entries integral.
func gwlValue(v recipe.Value) gwl.Value {
	switch v.Type {
	case recipe.TypeInt:
		return gwl.IntValue(v.Int)
	case recipe.TypeFloat:
		return gwl.FloatValue(v.Float)
	}
	return gwl.StringValue(v.String())
}

func printZones(doc *gwl.Document, job Job) error {
	pos := job.Start
	for k, zone := range job.Zones {
		include, err := gwl.Include(job.includePath(zone.Include))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err,
				"print zone %d (%s)", k, zone.Cell)
		}
		doc.Append(
			gwl.Empty(),
			gwl.Comment(fmt.Sprintf("Print zone %d: %s", k, zone.Cell)),
			gwl.Float(gwl.KindMoveStageX, zone.Origin.X-pos.X),
			gwl.Float(gwl.KindMoveStageY, zone.Origin.Y-pos.Y),
			include,
		)
		pos = zone.Origin
	}
	return nil
}

// includePath emits fragment paths relative to the job directory so
// the output tree stays relocatable. A fragment outside it keeps the
// path it was given; such a job only runs on the machine it was
// assembled on.
func (j Job) includePath(p string) string {
	if j.OutDir != "" {
		rel, err := filepath.Rel(j.OutDir, p)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	j.logger().Warn("job fragment lies outside the job directory", "path", p)
	return p
}

func (j Job) logger() *log.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return log.Default()
}
