package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"sharedstreets/internal/geo"
	"sharedstreets/internal/repository/memory"
	"sharedstreets/internal/services"
	"sharedstreets/pkg/ssid"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

type options struct {
	format string
	output string
}

// result is what every single-identifier command prints.
type result struct {
	ID      string      `yaml:"id"`
	Format  ssid.Format `yaml:"format"`
	Message string      `yaml:"message"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ssid",
		Short:         "Deterministic identifiers for map features",
		Long:          "Canonicalize map features, hash them with MD5 and print the identifier as hex or base58.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ssid.ParseFormat(opts.format); err != nil {
				return err
			}
			if opts.output != outputText && opts.output != outputYAML {
				return fmt.Errorf("unknown output %q (want %s or %s)", opts.output, outputText, outputYAML)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", ssid.DefaultFormat.String(), "identifier format: hex or base58")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output: text or yaml")

	root.AddCommand(
		newMessageCmd(opts),
		newIntersectionCmd(opts),
		newGeometryCmd(opts),
		newLocationReferenceCmd(opts),
		newReferenceCmd(opts),
		newConvertCmd(opts),
	)
	return root
}

func newMessageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "message <canonical message>",
		Short: "Hash a canonical message as given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printID(cmd, opts, args[0])
		},
	}
}

func newIntersectionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "intersection <lon> <lat>",
		Short: "Identifier of an intersection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			message, err := ssid.IntersectionMessage(p)
			if err != nil {
				return err
			}
			return printID(cmd, opts, message)
		},
	}
}

func newLocationReferenceCmd(opts *options) *cobra.Command {
	var bearing, distance, outBearing float64

	cmd := &cobra.Command{
		Use:   "location-reference <lon> <lat>",
		Short: "Identifier of a location reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}

			lr := ssid.LocationReference{Point: p}
			flags := cmd.Flags()
			if flags.Changed("bearing") {
				lr.Bearing = ssid.Float(bearing)
			}
			if flags.Changed("distance") {
				lr.Distance = ssid.Float(distance)
			}
			if flags.Changed("out-bearing") {
				lr.OutBearing = ssid.Float(outBearing)
			}

			message, err := ssid.LocationReferenceMessage(lr)
			if err != nil {
				return err
			}
			return printID(cmd, opts, message)
		},
	}
	cmd.Flags().Float64Var(&bearing, "bearing", 0, "bearing in degrees")
	cmd.Flags().Float64Var(&distance, "distance", 0, "distance to the next location reference in meters")
	cmd.Flags().Float64Var(&outBearing, "out-bearing", 0, "outgoing bearing in degrees")
	return cmd
}

func newReferenceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reference <form of way> <location reference id> <location reference id>",
		Short: "Identifier of a reference composed from two location reference IDs",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fow, err := ssid.ParseFormOfWay(args[0])
			if err != nil {
				return err
			}
			message, err := ssid.ReferenceMessage(fow, args[1], args[2])
			if err != nil {
				return err
			}
			return printID(cmd, opts, message)
		},
	}
}

func newGeometryCmd(opts *options) *cobra.Command {
	var formOfWay, roadClass string

	cmd := &cobra.Command{
		Use:   "geometry <lon,lat> <lon,lat>...",
		Short: "Identifiers of a geometry, its intersections and its references",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := make(orb.LineString, 0, len(args))
			for _, arg := range args {
				lon, lat, ok := strings.Cut(arg, ",")
				if !ok {
					return fmt.Errorf("position %q: want lon,lat", arg)
				}
				p, err := parsePoint(lon, lat)
				if err != nil {
					return err
				}
				line = append(line, p)
			}

			fow, err := ssid.ParseFormOfWay(formOfWay)
			if err != nil {
				return err
			}
			rc, err := ssid.ParseRoadClass(roadClass)
			if err != nil {
				return err
			}

			service, err := newService()
			if err != nil {
				return err
			}
			res, err := service.Geometry(context.Background(), services.GeometryRequest{
				Line:      line,
				FormOfWay: fow,
				RoadClass: rc,
			}, ssid.Format(opts.format))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.output == outputYAML {
				return writeYAML(w, res)
			}
			_, err = fmt.Fprintf(w, "geometry %s\nfrom %s\nto %s\nforward %s\nback %s\n",
				res.Geometry.ID,
				res.FromIntersection.ID,
				res.ToIntersection.ID,
				res.ForwardReference.ID,
				res.BackReference.ID,
			)
			return err
		},
	}
	cmd.Flags().StringVar(&formOfWay, "form-of-way", "", "form of way name or number")
	cmd.Flags().StringVar(&roadClass, "road-class", "", "road class name or number")
	return cmd
}

func newConvertCmd(opts *options) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "convert <id>",
		Short: "Re-render an identifier in the format given by --format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromFormat, err := ssid.ParseFormat(from)
			if err != nil {
				return err
			}
			id, err := ssid.Convert(args[0], fromFormat, ssid.Format(opts.format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", ssid.FormatHex.String(), "format of the given identifier")
	return cmd
}

// newService builds a throwaway in-memory service for one command.
func newService() (*services.IdentifierService, error) {
	repo, err := memory.NewFeatureRepository(16, geo.NewTileIndex(0))
	if err != nil {
		return nil, err
	}
	return services.NewIdentifierService(repo, ssid.DefaultFormat), nil
}

func printID(cmd *cobra.Command, opts *options, message string) error {
	f := ssid.Format(opts.format)
	id, err := ssid.IdentifierFor(message, f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.output == outputYAML {
		return writeYAML(w, result{ID: id, Format: f, Message: message})
	}
	_, err = fmt.Fprintln(w, id)
	return err
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func parsePoint(lon, lat string) (orb.Point, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("longitude %q: %w", lon, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("latitude %q: %w", lat, err)
	}
	return orb.Point{x, y}, nil
}
