package items

import (
	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/manifest"
)

// Catalog is the subset of the manifest store the resolver reads.
type Catalog interface {
	Item(hash int64) *manifest.ItemDefinition
	Stat(hash int64) *manifest.StatDefinition
	Objective(hash int64) *manifest.ObjectiveDefinition
	EnergyType(hash int64) *manifest.EnergyTypeDefinition
}

// Resolver merges item instances with their catalog definitions. It holds no
// mutable state and may be shared.
type Resolver struct {
	catalog Catalog
	rules   []PlugRule
	roles   map[manifest.Hash]SocketRole
}

type Option func(*Resolver)

// WithPlugRules replaces DefaultPlugRules.
func WithPlugRules(rules []PlugRule) Option {
	return func(r *Resolver) { r.rules = rules }
}

// WithSocketRoles replaces DefaultSocketRoles.
func WithSocketRoles(roles map[manifest.Hash]SocketRole) Option {
	return func(r *Resolver) { r.roles = roles }
}

func NewResolver(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		rules:   DefaultPlugRules,
		roles:   DefaultSocketRoles,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the DisplayItem of inst. Only a missing definition for the
// item itself is an error; any other missing definition drops that entry.
func (r *Resolver) Resolve(inst *ItemInstance) (*DisplayItem, error) {
	def := r.catalog.Item(int64(inst.ItemHash))
	if def == nil {
		return nil, &ResolutionError{ItemHash: inst.ItemHash, InstanceID: inst.ItemInstanceID}
	}

	item := &DisplayItem{
		Hash:        inst.ItemHash,
		InstanceID:  inst.ItemInstanceID,
		DamageType:  inst.DamageType.String(),
		PowerLevel:  inst.PrimaryStat,
		Name:        def.DisplayProperties.Name,
		Description: def.DisplayProperties.Description,
		Icon:        def.DisplayProperties.Icon,
		HasIcon:     def.DisplayProperties.HasIcon,
		Tier:        def.Inventory.TierTypeName,
		Type:        def.ItemTypeDisplayName,
		TypeAndTier: def.ItemTypeAndTierDisplayName,
	}

	// Ornaments replace the icon only.
	if inst.OverrideStyleItemHash != 0 {
		if style := r.catalog.Item(int64(inst.OverrideStyleItemHash)); style != nil {
			item.Icon = style.DisplayProperties.Icon
			item.HasIcon = style.DisplayProperties.HasIcon
		} else {
			utils.Log.Debugf("No definition for override style %d", uint32(inst.OverrideStyleItemHash))
		}
	}

	if inst.Energy != nil {
		item.Armor2 = true
		item.EnergyUsed = inst.Energy.Used
		item.EnergyCapacity = inst.Energy.Capacity
		if et := r.catalog.EnergyType(int64(inst.Energy.EnergyTypeHash)); et != nil {
			item.EnergyType = et.DisplayProperties.Name
		}
	}

	if def.Sockets != nil {
		r.walkSockets(def.Sockets, inst, item)
	}

	item.Stats = r.stats(inst)
	return item, nil
}

func (r *Resolver) walkSockets(sockets *manifest.ItemSockets, inst *ItemInstance, item *DisplayItem) {
	for _, category := range sockets.SocketCategories {
		role := r.roles[category.SocketCategoryHash]
		if role == RoleNone {
			continue
		}
		for _, idx := range category.SocketIndexes {
			// Hidden or inapplicable sockets have no state.
			if idx < 0 || idx >= len(inst.Sockets) {
				continue
			}
			state := inst.Sockets[idx]
			switch {
			case role.perks():
				r.perkSocket(idx, state, inst, item)
			case role.mods():
				r.modSocket(state, inst, item)
			}
		}
	}
}

func (r *Resolver) perkSocket(idx int, state SocketState, inst *ItemInstance, item *DisplayItem) {
	if state.IsVisible != nil && !*state.IsVisible {
		return
	}

	var inserted *manifest.ItemDefinition
	if state.PlugHash != 0 {
		inserted = r.catalog.Item(int64(state.PlugHash))
		if inserted != nil {
			item.Objectives = append(item.Objectives, r.objectives(inst, state.PlugHash)...)
			if ClassifyPlug(r.rules, plugIdentifier(inserted)) == PlugTracker {
				return
			}
		}
	}

	var socket PerkSocket
	if reusable := inst.ReusablePlugs[idx]; len(reusable) > 0 {
		selected := false
		for _, rp := range reusable {
			def := r.catalog.Item(int64(rp.PlugItemHash))
			if def == nil {
				utils.Log.Debugf("No definition for plug %d", uint32(rp.PlugItemHash))
				continue
			}
			isSelected := !selected && rp.PlugItemHash == state.PlugHash
			if isSelected {
				selected = true
			}
			socket.Perks = append(socket.Perks, newPerk(rp.PlugItemHash, def, isSelected))
		}
	} else if inserted != nil {
		socket.Perks = append(socket.Perks, newPerk(state.PlugHash, inserted, true))
	}

	if len(socket.Perks) > 0 {
		item.PerkSockets = append(item.PerkSockets, socket)
	}
}

func (r *Resolver) modSocket(state SocketState, inst *ItemInstance, item *DisplayItem) {
	if state.PlugHash == 0 {
		return
	}
	plug := r.catalog.Item(int64(state.PlugHash))
	if plug == nil {
		utils.Log.Debugf("No definition for plug %d", uint32(state.PlugHash))
		return
	}

	item.Objectives = append(item.Objectives, r.objectives(inst, state.PlugHash)...)

	switch ClassifyPlug(r.rules, plugIdentifier(plug)) {
	case PlugEnhancement:
		if isEmptySocket(plug) {
			return
		}
		item.PerkSockets = append(item.PerkSockets, PerkSocket{Perks: []Perk{newPerk(state.PlugHash, plug, true)}})
	case PlugMod:
		if isEmptySocket(plug) {
			return
		}
		item.Mod = &Mod{
			Hash:        state.PlugHash,
			Name:        plug.DisplayProperties.Name,
			Description: plug.DisplayProperties.Description,
			Icon:        plug.DisplayProperties.Icon,
			HasIcon:     plug.DisplayProperties.HasIcon,
		}
	case PlugMasterwork:
		if mw := r.masterwork(state.PlugHash, plug); mw != nil {
			item.Masterwork = mw
		}
	}
}

// masterwork reads the affected stat from the plug's first investment stat.
func (r *Resolver) masterwork(hash manifest.Hash, plug *manifest.ItemDefinition) *Masterwork {
	if len(plug.InvestmentStats) == 0 {
		return nil
	}
	inv := plug.InvestmentStats[0]
	stat := r.catalog.Stat(int64(inv.StatTypeHash))
	if stat == nil {
		utils.Log.Debugf("No definition for masterwork stat %d", uint32(inv.StatTypeHash))
		return nil
	}

	mw := &Masterwork{
		Hash:     hash,
		Name:     plug.DisplayProperties.Name,
		StatName: stat.DisplayProperties.Name,
		Value:    inv.Value,
	}
	if dt, ok := resistanceType(stat.DisplayProperties.Name); ok {
		mw.DamageResistanceType = &dt
	}
	return mw
}

func (r *Resolver) objectives(inst *ItemInstance, plugHash manifest.Hash) []Objective {
	var out []Objective
	for _, progress := range inst.PlugObjectives[plugHash] {
		if progress.Visible != nil && !*progress.Visible {
			continue
		}
		def := r.catalog.Objective(int64(progress.ObjectiveHash))
		if def == nil {
			continue
		}
		label := def.ProgressDescription
		if label == "" {
			label = def.DisplayProperties.Name
		}
		out = append(out, Objective{Label: label, Value: FormatObjectiveValue(def, progress)})
	}
	return out
}

func (r *Resolver) stats(inst *ItemInstance) []Stat {
	out := make([]Stat, 0, len(inst.Stats))
	for _, sv := range inst.Stats {
		def := r.catalog.Stat(int64(sv.StatHash))
		if def == nil {
			continue
		}
		out = append(out, Stat{
			Hash:        sv.StatHash,
			Name:        def.DisplayProperties.Name,
			Description: def.DisplayProperties.Description,
			Icon:        def.DisplayProperties.Icon,
			Value:       sv.Value,
		})
	}
	return out
}

func newPerk(hash manifest.Hash, def *manifest.ItemDefinition, selected bool) Perk {
	return Perk{
		Hash:        hash,
		Name:        def.DisplayProperties.Name,
		Description: def.DisplayProperties.Description,
		Icon:        def.DisplayProperties.Icon,
		HasIcon:     def.DisplayProperties.HasIcon,
		Selected:    selected,
	}
}
