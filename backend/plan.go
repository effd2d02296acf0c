package backend

import "fmt"

// featurePlan is the validated result of the registration phase.
type featurePlan struct {
	// pluginOrder lists plugin IDs in the order they were first seen.
	pluginOrder []string
	// byPlugin holds modules first, then the plugin itself.
	byPlugin        map[string][]*registration
	extensionPoints map[string]providedExtension
}

func planFeatures(features []Feature) (*featurePlan, error) {
	plan := &featurePlan{
		byPlugin:        make(map[string][]*registration),
		extensionPoints: make(map[string]providedExtension),
	}
	plugins := make(map[string]*registration)
	modules := make(map[string]bool)
	extensionOwners := make(map[string]string)

	for _, f := range features {
		if f == nil {
			return nil, fmt.Errorf("backend: nil feature")
		}
		if f.PluginID() == "" {
			return nil, fmt.Errorf("backend: feature without plugin ID")
		}
		name := featureName(f)

		switch f.Kind() {
		case KindPlugin:
			if _, dup := plugins[f.PluginID()]; dup {
				return nil, fmt.Errorf("plugin '%s' is already registered", f.PluginID())
			}
		case KindModule:
			key := f.PluginID() + "/" + f.ModuleID()
			if modules[key] {
				return nil, fmt.Errorf("module '%s' for plugin '%s' is already registered", f.ModuleID(), f.PluginID())
			}
			modules[key] = true
		}

		reg := &registration{feature: f}
		f.register(reg)

		if len(reg.inits) != 1 {
			return nil, fmt.Errorf("%s must register exactly one init, got %d", name, len(reg.inits))
		}
		for _, ep := range reg.extensionPoints {
			if owner, dup := extensionOwners[ep.ref.ID()]; dup {
				return nil, fmt.Errorf("extension point %s registered by %s is already provided by %s", ep.ref.ID(), name, owner)
			}
			extensionOwners[ep.ref.ID()] = name
			plan.extensionPoints[ep.ref.ID()] = ep
		}

		if _, seen := plan.byPlugin[f.PluginID()]; !seen {
			plan.pluginOrder = append(plan.pluginOrder, f.PluginID())
			plan.byPlugin[f.PluginID()] = nil
		}
		if f.Kind() == KindPlugin {
			plugins[f.PluginID()] = reg
		} else {
			plan.byPlugin[f.PluginID()] = append(plan.byPlugin[f.PluginID()], reg)
		}
	}

	for pluginID, reg := range plugins {
		plan.byPlugin[pluginID] = append(plan.byPlugin[pluginID], reg)
	}
	return plan, nil
}
