package catalog

import (
	"errors"
	"fmt"
)

// Resolve returns the leaf that applies to id.
//
// The dataset must match exactly. The version matches exactly or falls back
// to the highest declared version below it. Level and form are consulted only
// as deep as the version's layout goes, so a DirectLeaf version ignores both.
func (c *Catalog) Resolve(id Identity) (*Leaf, error) {
	v, err := c.MatchVersion(id.Dataset, id.Version)
	if err != nil {
		var rerr *ResolutionError
		if errors.As(err, &rerr) {
			rerr.Identity = id
		}
		return nil, err
	}

	switch l := v.layout.(type) {
	case DirectLeaf:
		return l.leaf, nil

	case ByLevel:
		if id.Level == nil {
			return nil, &ResolutionError{
				Kind:     ErrUnknownLevel,
				Identity: id,
				Detail:   fmt.Sprintf("%s %s requires a level (one of %s)", id.Dataset, v.name, joinInts(l.Levels())),
			}
		}
		leaf, ok := l.Level(*id.Level)
		if !ok {
			return nil, &ResolutionError{
				Kind:     ErrUnknownLevel,
				Identity: id,
				Detail:   fmt.Sprintf("%s %s has no level %d (declared: %s)", id.Dataset, v.name, *id.Level, joinInts(l.Levels())),
			}
		}
		return leaf, nil

	case ByLevelAndForm:
		if id.Level == nil || !l.HasLevel(*id.Level) {
			detail := fmt.Sprintf("%s %s requires a level (one of %s)", id.Dataset, v.name, joinInts(l.Levels()))
			if id.Level != nil {
				detail = fmt.Sprintf("%s %s has no level %d (declared: %s)", id.Dataset, v.name, *id.Level, joinInts(l.Levels()))
			}
			return nil, &ResolutionError{Kind: ErrUnknownLevel, Identity: id, Detail: detail}
		}
		forms := l.Forms(*id.Level)
		if id.Form == nil {
			return nil, &ResolutionError{
				Kind:     ErrUnknownForm,
				Identity: id,
				Detail:   fmt.Sprintf("%s %s level %d requires a form (one of %s)", id.Dataset, v.name, *id.Level, joinInts(forms)),
			}
		}
		leaf, ok := l.Form(*id.Level, *id.Form)
		if !ok {
			return nil, &ResolutionError{
				Kind:     ErrUnknownForm,
				Identity: id,
				Detail:   fmt.Sprintf("%s %s level %d has no form %d (declared: %s)", id.Dataset, v.name, *id.Level, *id.Form, joinInts(forms)),
			}
		}
		return leaf, nil

	default:
		panic(fmt.Sprintf("catalog: unhandled layout %T", l))
	}
}

// MatchVersion performs the dataset and version steps of Resolve. Callers that
// need to inspect the layout themselves, such as form search, start here.
func (c *Catalog) MatchVersion(dataset, version string) (*Version, error) {
	id := Identity{Dataset: dataset, Version: version}

	ds, ok := c.datasets[dataset]
	if !ok {
		rerr := c.UnknownDataset(dataset)
		rerr.Identity = id
		return nil, rerr
	}

	if v, ok := ds.byName[version]; ok {
		return v, nil
	}

	key, err := parseVersion(version)
	if err != nil {
		return nil, &ResolutionError{
			Kind:     ErrUnsupportedVersion,
			Identity: id,
			Detail:   fmt.Sprintf("%s: %v", dataset, err),
		}
	}

	// versions are ascending; keep the last one not above the request.
	var match *Version
	for _, v := range ds.versions {
		if compareVersionKeys(v.key, key) > 0 {
			break
		}
		match = v
	}
	if match == nil {
		return nil, &ResolutionError{
			Kind:     ErrUnsupportedVersion,
			Identity: id,
			Detail: fmt.Sprintf("%s %s is older than every declared version (lowest is %s)",
				dataset, version, ds.versions[0].name),
		}
	}
	return match, nil
}
