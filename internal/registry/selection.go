package registry

import "regexp"

// Select applies filter/skip over the fully-qualified name of each
// Case (ancestor Group names joined by "/", own name appended) and
// returns a new tree containing only the eligible Cases. A Group whose
// entire subtree is eliminated is pruned (recorded in its parent's
// PrunedNames) rather than appearing empty.
//
// An empty filter behaves as ".*" (select everything); an empty skip
// never eliminates anything — this is what makes property 8
// (`filter=".*"` with empty `skip` equals no filter) hold.
func Select(root *Group, filter, skip string) (*Group, error) {
	filterRe, err := regexp.Compile(orDefault(filter, ".*"))
	if err != nil {
		return nil, err
	}

	var skipRe *regexp.Regexp
	if skip != "" {
		skipRe, err = regexp.Compile(skip)
		if err != nil {
			return nil, err
		}
	}

	selected := pruneGroup(root, "", filterRe, skipRe)
	if selected == nil {
		selected = &Group{Name: root.Name}
		for _, child := range root.Children {
			switch {
			case child.Group != nil:
				selected.PrunedNames = append(selected.PrunedNames, child.Group.Name)
			case child.Case != nil:
				selected.PrunedNames = append(selected.PrunedNames, child.Case.Name)
			}
		}
	}
	return selected, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// pruneGroup returns a filtered copy of g, or nil if every descendant
// Case was eliminated.
func pruneGroup(g *Group, prefix string, filterRe, skipRe *regexp.Regexp) *Group {
	fqnPrefix := join(prefix, g.Name)

	out := &Group{Name: g.Name}
	for _, child := range g.Children {
		switch {
		case child.Group != nil:
			sub := pruneGroup(child.Group, fqnPrefix, filterRe, skipRe)
			if sub == nil {
				out.PrunedNames = append(out.PrunedNames, child.Group.Name)
				continue
			}
			out.Children = append(out.Children, &Node{Group: sub})

		case child.Case != nil:
			fqn := join(fqnPrefix, child.Case.Name)
			eligible := filterRe.MatchString(fqn) && !(skipRe != nil && skipRe.MatchString(fqn))
			if !eligible {
				out.PrunedNames = append(out.PrunedNames, child.Case.Name)
				continue
			}
			out.Children = append(out.Children, child)
		}
	}

	if len(out.Children) == 0 {
		return nil
	}
	return out
}
