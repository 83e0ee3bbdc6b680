package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"
	"sharedstreets/internal/domain/entities"
	"sharedstreets/internal/geo"
	"sharedstreets/internal/logger"
	"sharedstreets/internal/repository"
	"sharedstreets/pkg/ssid"
)

var ErrFeatureNotFound = errors.New("feature not found")

// MessageRequest asks for the identifier of an already canonical message.
type MessageRequest struct {
	Message string
}

// IntersectionRequest describes a node.
type IntersectionRequest struct {
	Point  orb.Point
	NodeID *int64
}

// LocationReferenceRequest carries the fields that are hashed into a
// location reference identifier. Distance is in meters.
type LocationReferenceRequest struct {
	Point      orb.Point
	Bearing    *float64
	Distance   *float64
	OutBearing *float64
}

// ReferenceRequest composes a reference from two location references.
type ReferenceRequest struct {
	FormOfWay          ssid.FormOfWay
	LocationReferences [2]LocationReferenceRequest
	GeometryID         string
}

// GeometryRequest describes a street centerline. The same line yields the
// forward reference; its reverse yields the back reference.
type GeometryRequest struct {
	Line      orb.LineString
	FormOfWay ssid.FormOfWay
	RoadClass ssid.RoadClass
}

// MessageResult is the identifier of a raw message.
type MessageResult struct {
	ID      string      `json:"id" yaml:"id"`
	Format  ssid.Format `json:"format" yaml:"format"`
	Message string      `json:"message" yaml:"message"`
}

// GeometryResult bundles everything derived from one geometry.
type GeometryResult struct {
	Geometry         *entities.Geometry     `json:"geometry" yaml:"geometry"`
	FromIntersection *entities.Intersection `json:"fromIntersection" yaml:"fromIntersection"`
	ToIntersection   *entities.Intersection `json:"toIntersection" yaml:"toIntersection"`
	ForwardReference *entities.Reference    `json:"forwardReference" yaml:"forwardReference"`
	BackReference    *entities.Reference    `json:"backReference" yaml:"backReference"`
}

// IdentifierService computes feature identifiers and keeps the computed
// features in a repository so they can be looked up by ID or by tile.
type IdentifierService struct {
	repo          repository.FeatureRepository
	defaultFormat ssid.Format
	log           *zap.Logger

	// nodeMu serializes the read-merge-write of intersection records, which
	// accumulate reference IDs from every geometry touching the node.
	nodeMu sync.Mutex
}

func NewIdentifierService(repo repository.FeatureRepository, defaultFormat ssid.Format) *IdentifierService {
	if !defaultFormat.Valid() {
		defaultFormat = ssid.DefaultFormat
	}
	return &IdentifierService{
		repo:          repo,
		defaultFormat: defaultFormat,
		log:           logger.With(zap.String("component", "identifier_service")),
	}
}

// DefaultFormat is the format used when a call passes an empty Format.
func (s *IdentifierService) DefaultFormat() ssid.Format {
	return s.defaultFormat
}

func (s *IdentifierService) format(f ssid.Format) (ssid.Format, error) {
	if f == "" {
		return s.defaultFormat, nil
	}
	return ssid.ParseFormat(string(f))
}

// MessageID hashes a canonical message as given. Nothing is stored.
func (s *IdentifierService) MessageID(ctx context.Context, req MessageRequest, f ssid.Format) (*MessageResult, error) {
	f, err := s.format(f)
	if err != nil {
		return nil, err
	}
	id, err := ssid.IdentifierFor(req.Message, f)
	if err != nil {
		return nil, err
	}
	return &MessageResult{ID: id, Format: f, Message: req.Message}, nil
}

// Intersection computes and stores an intersection.
func (s *IdentifierService) Intersection(ctx context.Context, req IntersectionRequest, f ssid.Format) (*entities.Intersection, error) {
	f, err := s.format(f)
	if err != nil {
		return nil, err
	}

	in, message, err := s.intersection(req.Point, f)
	if err != nil {
		return nil, err
	}
	in.NodeID = req.NodeID

	s.nodeMu.Lock()
	defer s.nodeMu.Unlock()

	in, err = s.mergeStored(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, in.ID, ssid.KindIntersection, f, message, []orb.Point{req.Point}, in); err != nil {
		return nil, err
	}
	return in, nil
}

// LocationReference computes a location reference. Location references are
// embedded in references, so they are not stored on their own.
func (s *IdentifierService) LocationReference(ctx context.Context, req LocationReferenceRequest, f ssid.Format) (*entities.LocationReference, error) {
	f, err := s.format(f)
	if err != nil {
		return nil, err
	}
	lr, _, err := s.locationReference(req, f)
	return lr, err
}

// Reference computes and stores a reference over two location references.
func (s *IdentifierService) Reference(ctx context.Context, req ReferenceRequest, f ssid.Format) (*entities.Reference, error) {
	f, err := s.format(f)
	if err != nil {
		return nil, err
	}

	ref, message, err := s.reference(req, f)
	if err != nil {
		return nil, err
	}

	points := []orb.Point{req.LocationReferences[0].Point, req.LocationReferences[1].Point}
	if err := s.store(ctx, ref.ID, ssid.KindReference, f, message, points, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// Geometry computes a geometry, its two end intersections, and its forward
// and back references, and stores all five features.
func (s *IdentifierService) Geometry(ctx context.Context, req GeometryRequest, f ssid.Format) (*GeometryResult, error) {
	f, err := s.format(f)
	if err != nil {
		return nil, err
	}
	if !req.FormOfWay.Valid() {
		return nil, invalid("form_of_way", fmt.Sprintf("unknown form of way %d", int(req.FormOfWay)))
	}
	if !req.RoadClass.Valid() {
		return nil, invalid("road_class", fmt.Sprintf("unknown road class %d", int(req.RoadClass)))
	}

	geomMessage, err := ssid.GeometryMessage(req.Line)
	if err != nil {
		return nil, err
	}
	geomID, err := ssid.IdentifierFor(geomMessage, f)
	if err != nil {
		return nil, err
	}

	// References need a start and an end, so a single point line has a
	// geometry ID but nothing derived from it.
	if len(req.Line) < 2 {
		return nil, invalid("geometry", geo.ErrLineTooShort.Error())
	}

	from, fromMessage, err := s.intersection(req.Line[0], f)
	if err != nil {
		return nil, err
	}
	to, toMessage, err := s.intersection(req.Line[len(req.Line)-1], f)
	if err != nil {
		return nil, err
	}

	forward, forwardMessage, err := s.derivedReference(req.Line, req.FormOfWay, geomID, f)
	if err != nil {
		return nil, fmt.Errorf("forward reference: %w", err)
	}
	back, backMessage, err := s.derivedReference(geo.Reverse(req.Line), req.FormOfWay, geomID, f)
	if err != nil {
		return nil, fmt.Errorf("back reference: %w", err)
	}

	from.OutboundReferenceIDs = append(from.OutboundReferenceIDs, forward.ID)
	from.InboundReferenceIDs = append(from.InboundReferenceIDs, back.ID)
	to.InboundReferenceIDs = append(to.InboundReferenceIDs, forward.ID)
	to.OutboundReferenceIDs = append(to.OutboundReferenceIDs, back.ID)

	geometry := &entities.Geometry{
		ID:                 geomID,
		FromIntersectionID: from.ID,
		ToIntersectionID:   to.ID,
		ForwardReferenceID: forward.ID,
		BackReferenceID:    back.ID,
		RoadClass:          req.RoadClass.String(),
		Lonlats:            entities.Lonlats(req.Line),
	}

	ends := []orb.Point{req.Line[0], req.Line[len(req.Line)-1]}
	writes := []*entities.Record{
		entities.NewRecord(geometry.ID, ssid.KindGeometry, f, geomMessage, []orb.Point(req.Line), geometry),
		entities.NewRecord(forward.ID, ssid.KindReference, f, forwardMessage, ends, forward),
		entities.NewRecord(back.ID, ssid.KindReference, f, backMessage, ends, back),
	}
	for _, rec := range writes {
		if err := s.repo.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to store %s %s: %w", rec.Kind, rec.ID, err)
		}
	}

	s.nodeMu.Lock()
	defer s.nodeMu.Unlock()

	// A closed loop starts and ends on the same node.
	if from.ID == to.ID {
		from = mergeReferenceIDs(from, to)
		to = from
	}
	from, err = s.mergeStored(ctx, from)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, entities.NewRecord(from.ID, ssid.KindIntersection, f, fromMessage, ends[:1], from)); err != nil {
		return nil, fmt.Errorf("failed to store intersection %s: %w", from.ID, err)
	}
	if to.ID == from.ID {
		to = from
	} else {
		to, err = s.mergeStored(ctx, to)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, entities.NewRecord(to.ID, ssid.KindIntersection, f, toMessage, ends[1:], to)); err != nil {
			return nil, fmt.Errorf("failed to store intersection %s: %w", to.ID, err)
		}
	}

	s.log.Debug("geometry stored",
		zap.String("id", geometry.ID),
		zap.String("format", f.String()),
		zap.Int("points", len(req.Line)),
	)

	return &GeometryResult{
		Geometry:         geometry,
		FromIntersection: from,
		ToIntersection:   to,
		ForwardReference: forward,
		BackReference:    back,
	}, nil
}

// Get returns a stored record by ID.
func (s *IdentifierService) Get(ctx context.Context, id string) (*entities.Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrFeatureNotFound
	}
	return rec, nil
}

// InTile lists stored records touching a map tile.
func (s *IdentifierService) InTile(ctx context.Context, tile maptile.Tile) ([]*entities.Record, error) {
	if tile.Z > geo.MaxZoom {
		return nil, invalid("tile", fmt.Sprintf("zoom %d exceeds %d", tile.Z, geo.MaxZoom))
	}
	if n := uint32(1) << tile.Z; tile.X >= n || tile.Y >= n {
		return nil, invalid("tile", fmt.Sprintf("tile %d/%d/%d out of range", tile.Z, tile.X, tile.Y))
	}
	return s.repo.GetInTile(ctx, tile)
}

func (s *IdentifierService) intersection(p orb.Point, f ssid.Format) (*entities.Intersection, string, error) {
	message, err := ssid.IntersectionMessage(p)
	if err != nil {
		return nil, "", err
	}
	id, err := ssid.IdentifierFor(message, f)
	if err != nil {
		return nil, "", err
	}
	return &entities.Intersection{
		ID:                   id,
		Lon:                  p.Lon(),
		Lat:                  p.Lat(),
		InboundReferenceIDs:  []string{},
		OutboundReferenceIDs: []string{},
	}, message, nil
}

func (s *IdentifierService) locationReference(req LocationReferenceRequest, f ssid.Format) (*entities.LocationReference, ssid.LocationReference, error) {
	core := ssid.LocationReference{
		Point:      req.Point,
		Bearing:    req.Bearing,
		Distance:   req.Distance,
		OutBearing: req.OutBearing,
	}
	id, err := ssid.ID(core, f)
	if err != nil {
		return nil, core, err
	}
	in, _, err := s.intersection(req.Point, f)
	if err != nil {
		return nil, core, err
	}

	lr := &entities.LocationReference{
		ID:              id,
		IntersectionID:  in.ID,
		Lon:             req.Point.Lon(),
		Lat:             req.Point.Lat(),
		OutboundBearing: req.Bearing,
		InboundBearing:  req.OutBearing,
	}
	if req.Distance != nil {
		cm := int64(math.Round(*req.Distance * 100))
		lr.DistanceToNextRef = &cm
	}
	return lr, core, nil
}

func (s *IdentifierService) reference(req ReferenceRequest, f ssid.Format) (*entities.Reference, string, error) {
	lrs := make([]entities.LocationReference, 0, 2)
	var cores [2]ssid.LocationReference
	for i, r := range req.LocationReferences {
		lr, core, err := s.locationReference(r, f)
		if err != nil {
			return nil, "", fmt.Errorf("location reference %d: %w", i, err)
		}
		lrs = append(lrs, *lr)
		cores[i] = core
	}

	ref, err := ssid.NewReference(req.FormOfWay, cores[0], cores[1], f)
	if err != nil {
		return nil, "", err
	}
	message, err := ref.Message()
	if err != nil {
		return nil, "", err
	}
	id, err := ssid.IdentifierFor(message, f)
	if err != nil {
		return nil, "", err
	}

	return &entities.Reference{
		ID:                 id,
		GeometryID:         req.GeometryID,
		FormOfWay:          int(req.FormOfWay),
		LocationReferences: lrs,
	}, message, nil
}

// derivedReference builds the reference that traverses line from its first
// point to its last. The start location reference hashes its outbound
// bearing and the line length; the end one carries only its inbound bearing,
// which is not part of the hashed message.
func (s *IdentifierService) derivedReference(line orb.LineString, fow ssid.FormOfWay, geomID string, f ssid.Format) (*entities.Reference, string, error) {
	anchors, err := geo.Anchors(line)
	if err != nil {
		return nil, "", invalid("geometry", err.Error())
	}
	start, end := anchors[0], anchors[1]

	ref, message, err := s.reference(ReferenceRequest{
		FormOfWay: fow,
		LocationReferences: [2]LocationReferenceRequest{
			{Point: start.Point, Bearing: start.OutboundBearing, Distance: start.DistanceToNext},
			{Point: end.Point},
		},
		GeometryID: geomID,
	}, f)
	if err != nil {
		return nil, "", err
	}
	ref.LocationReferences[1].InboundBearing = end.InboundBearing
	return ref, message, nil
}

// mergeStored folds the reference IDs of an already stored intersection with
// the same ID into in. The caller holds nodeMu.
func (s *IdentifierService) mergeStored(ctx context.Context, in *entities.Intersection) (*entities.Intersection, error) {
	rec, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load intersection %s: %w", in.ID, err)
	}
	if rec == nil {
		return in, nil
	}
	stored, ok := rec.Value.(*entities.Intersection)
	if !ok {
		return in, nil
	}
	return mergeReferenceIDs(stored, in), nil
}

// mergeReferenceIDs returns a new intersection carrying the reference IDs of
// both, deduplicated, older ones first. Neither argument is modified. The
// node ID of b wins when set.
func mergeReferenceIDs(a, b *entities.Intersection) *entities.Intersection {
	merged := *b
	merged.InboundReferenceIDs = union(a.InboundReferenceIDs, b.InboundReferenceIDs)
	merged.OutboundReferenceIDs = union(a.OutboundReferenceIDs, b.OutboundReferenceIDs)
	if merged.NodeID == nil {
		merged.NodeID = a.NodeID
	}
	return &merged
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *IdentifierService) store(ctx context.Context, id string, kind ssid.Kind, f ssid.Format, message string, points []orb.Point, value any) error {
	if err := s.repo.Save(ctx, entities.NewRecord(id, kind, f, message, points, value)); err != nil {
		return fmt.Errorf("failed to store %s %s: %w", kind, id, err)
	}
	s.log.Debug("feature stored",
		zap.String("id", id),
		zap.String("kind", kind.String()),
		zap.String("format", f.String()),
	)
	return nil
}

func invalid(field, message string) error {
	return &ssid.Error{Code: ssid.CodeInvalidInput, Field: field, Message: message}
}
