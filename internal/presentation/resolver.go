// Package presentation derives advisory display orders from whatever subset
// of pipeline artifacts is available. It is read-only over the manifests and
// never feeds back into them; a run with no artifacts at all still yields a
// usable, labeled order.
package presentation

import (
	"sort"

	"seriescore/pkg/domain"
)

// OrderingMethod labels the key that produced a series' display order.
type OrderingMethod string

const (
	OrderOrderedManifest OrderingMethod = "ORDERED_MANIFEST"
	OrderInstanceNumber  OrderingMethod = "INSTANCE_NUMBER"
	OrderAcquisitionTime OrderingMethod = "ACQUISITION_TIME"
	OrderFilename        OrderingMethod = "FILENAME"
)

// SeriesOrderingMethod labels the key that produced the series list order.
type SeriesOrderingMethod string

const (
	SeriesOrderBaselineManifest SeriesOrderingMethod = "BASELINE_MANIFEST"
	SeriesOrderDiscovery        SeriesOrderingMethod = "DISCOVERY_ORDER"
)

// Instance is one displayable instance. A thin read-only projection of the
// captured entry plus its resolved stack position.
type Instance struct {
	FileIndex       int
	Filename        string
	InstanceID      string
	SeriesID        string
	InstanceNumber  *int
	AcquisitionTime *string
	Modality        string

	// OrderedIndex carries the canonical position when an ordered manifest
	// supplied one; nil otherwise.
	OrderedIndex *int

	// StackPosition is the resolved display position, 1-based.
	StackPosition int
}

// Series groups the resolved instances of one series with the provenance of
// their order.
type Series struct {
	SeriesID          string
	Modality          string
	SeriesDescription string
	SeriesNumber      *int
	Instances         []Instance

	// BaselineFirstSeen is the file index of the series' first baseline
	// occurrence; nil when no baseline manifest was available.
	BaselineFirstSeen *int

	OrderingMethod OrderingMethod
}

// Count returns the number of instances in the series.
func (s Series) Count() int { return len(s.Instances) }

// StudyView is the fully resolved display order of a study.
type StudyView struct {
	Series               []Series
	SeriesOrderingMethod SeriesOrderingMethod
}

// Resolver derives display orders. All failure handling is fall-through: a
// method that does not apply to every instance of a series is skipped, and
// the final filename fallback always applies.
type Resolver struct {
	logger domain.Logger
}

// NewResolver constructs a resolver logging through the supplied sink. A nil
// logger disables logging.
func NewResolver(logger domain.Logger) *Resolver {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Resolver{logger: logger}
}

// Resolve groups entries by series in discovery order, sorts each series
// through the instance cascade, and orders the series list through the
// series cascade. Either manifest may be nil; missing artifacts degrade the
// cascade, they never fail it.
func (r *Resolver) Resolve(entries []domain.Entry, ordered *domain.OrderedManifest, baseline *domain.BaselineManifest) StudyView {
	orderedLookup := orderedIndexLookup(ordered)
	firstSeen := baselineSeriesFirstSeen(baseline)

	var seriesIDs []string
	grouped := make(map[string][]Instance)
	meta := make(map[string]domain.Entry)
	for _, e := range entries {
		if _, ok := grouped[e.SeriesID]; !ok {
			seriesIDs = append(seriesIDs, e.SeriesID)
			meta[e.SeriesID] = e
		}
		inst := Instance{
			FileIndex:       e.SourceIndex,
			Filename:        e.RelativePath,
			InstanceID:      e.InstanceID,
			SeriesID:        e.SeriesID,
			InstanceNumber:  e.InstanceNumber,
			AcquisitionTime: e.AcquisitionTime,
			Modality:        e.Modality,
		}
		if idx, ok := orderedLookup[instanceKey{e.SeriesID, e.InstanceID}]; ok {
			inst.OrderedIndex = domain.IntPtr(idx)
		}
		grouped[e.SeriesID] = append(grouped[e.SeriesID], inst)
	}

	view := StudyView{}
	for _, seriesID := range seriesIDs {
		instances := grouped[seriesID]
		method, sorted := r.sortInstances(seriesID, instances)
		for i := range sorted {
			sorted[i].StackPosition = i + 1
		}
		first := meta[seriesID]
		series := Series{
			SeriesID:          seriesID,
			Modality:          first.Modality,
			SeriesDescription: first.SeriesDescription,
			SeriesNumber:      first.SeriesNumber,
			Instances:         sorted,
			OrderingMethod:    method,
		}
		if idx, ok := firstSeen[seriesID]; ok {
			series.BaselineFirstSeen = domain.IntPtr(idx)
		}
		view.Series = append(view.Series, series)
	}

	view.SeriesOrderingMethod = r.sortSeries(view.Series)
	return view
}

type instanceKey struct {
	seriesID   string
	instanceID string
}

func orderedIndexLookup(m *domain.OrderedManifest) map[instanceKey]int {
	lookup := make(map[instanceKey]int)
	if m == nil {
		return lookup
	}
	for _, e := range m.Entries {
		if e.SeriesID == "" || e.InstanceID == "" || e.OrderedIndex == 0 {
			continue
		}
		lookup[instanceKey{e.SeriesID, e.InstanceID}] = e.OrderedIndex
	}
	return lookup
}

func baselineSeriesFirstSeen(m *domain.BaselineManifest) map[string]int {
	firstSeen := make(map[string]int)
	if m == nil {
		return firstSeen
	}
	for _, e := range m.Entries {
		if e.SeriesID == "" {
			continue
		}
		if _, ok := firstSeen[e.SeriesID]; !ok {
			firstSeen[e.SeriesID] = e.SourceIndex
		}
	}
	return firstSeen
}

// sortInstances applies the per-series cascade. A method is usable only when
// its key is present on every instance of the series.
func (r *Resolver) sortInstances(seriesID string, instances []Instance) (OrderingMethod, []Instance) {
	if len(instances) == 0 {
		return OrderInstanceNumber, nil
	}
	sorted := append([]Instance(nil), instances...)

	if allInstances(sorted, func(i Instance) bool { return i.OrderedIndex != nil }) {
		sort.SliceStable(sorted, func(a, b int) bool { return *sorted[a].OrderedIndex < *sorted[b].OrderedIndex })
		return OrderOrderedManifest, sorted
	}
	if allInstances(sorted, func(i Instance) bool { return i.InstanceNumber != nil }) {
		sort.SliceStable(sorted, func(a, b int) bool { return *sorted[a].InstanceNumber < *sorted[b].InstanceNumber })
		return OrderInstanceNumber, sorted
	}
	if allInstances(sorted, func(i Instance) bool { return i.AcquisitionTime != nil }) {
		sort.SliceStable(sorted, func(a, b int) bool { return *sorted[a].AcquisitionTime < *sorted[b].AcquisitionTime })
		return OrderAcquisitionTime, sorted
	}

	r.logger.Warn("falling back to filename ordering",
		"series_id", seriesID,
		"instances", len(sorted))
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Filename < sorted[b].Filename })
	return OrderFilename, sorted
}

// sortSeries orders view.Series in place and returns the method used.
// Baseline first-occurrence order applies only when known for every series;
// the fallback sorts by series number (numbered series first) then series id.
func (r *Resolver) sortSeries(series []Series) SeriesOrderingMethod {
	if len(series) == 0 {
		return SeriesOrderDiscovery
	}
	allBaseline := true
	for _, s := range series {
		if s.BaselineFirstSeen == nil {
			allBaseline = false
			break
		}
	}
	if allBaseline {
		sort.SliceStable(series, func(a, b int) bool {
			return *series[a].BaselineFirstSeen < *series[b].BaselineFirstSeen
		})
		return SeriesOrderBaselineManifest
	}
	sort.SliceStable(series, func(a, b int) bool {
		return seriesFallbackLess(series[a], series[b])
	})
	return SeriesOrderDiscovery
}

func seriesFallbackLess(a, b Series) bool {
	if (a.SeriesNumber != nil) != (b.SeriesNumber != nil) {
		return a.SeriesNumber != nil
	}
	if a.SeriesNumber != nil && *a.SeriesNumber != *b.SeriesNumber {
		return *a.SeriesNumber < *b.SeriesNumber
	}
	return a.SeriesID < b.SeriesID
}

func allInstances(instances []Instance, pred func(Instance) bool) bool {
	for _, i := range instances {
		if !pred(i) {
			return false
		}
	}
	return true
}

// OrderingLabel returns the reviewer-facing description of an instance
// ordering method.
func OrderingLabel(method OrderingMethod) string {
	switch method {
	case OrderOrderedManifest:
		return "Order: sealed manifest"
	case OrderInstanceNumber:
		return "Order: instance number"
	case OrderAcquisitionTime:
		return "Order: acquisition time"
	case OrderFilename:
		return "Order: filename (fallback)"
	default:
		return "Order: unknown"
	}
}

// SeriesOrderingLabel returns the reviewer-facing description of a series
// list ordering method.
func SeriesOrderingLabel(method SeriesOrderingMethod) string {
	switch method {
	case SeriesOrderBaselineManifest:
		return "Series order: source manifest"
	case SeriesOrderDiscovery:
		return "Series order: discovery"
	default:
		return "Series order: unknown"
	}
}
