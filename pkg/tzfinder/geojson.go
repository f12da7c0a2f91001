package tzfinder

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PolygonGeoJSON 指定时区的多边形，输出单个 MultiPolygon Feature
func (f *Finder) PolygonGeoJSON(name string) (*geojson.Feature, error) {
	idx := f.r.Store().Indices(name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	mp := make(orb.MultiPolygon, 0, len(idx))
	for _, i := range idx {
		mp = append(mp, f.r.Store().Polygon(i).Orb())
	}
	feat := geojson.NewFeature(mp)
	feat.Properties["tzid"] = name
	feat.Properties["version"] = f.DataVersion()
	return feat, nil
}

// IndexGeoJSON 指定时区在索引中登记的格子/包围盒，每个格子一个 Feature
func (f *Finder) IndexGeoJSON(name string) (*geojson.FeatureCollection, error) {
	idx := f.r.Store().Indices(name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	fc := geojson.NewFeatureCollection()
	seen := make(map[orb.Bound]struct{})
	for _, i := range idx {
		for _, b := range f.r.Index().Cells(i) {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			feat := geojson.NewFeature(b.ToPolygon())
			feat.Properties["tzid"] = name
			feat.Properties["index"] = string(f.IndexKind())
			fc.Append(feat)
		}
	}
	return fc, nil
}
