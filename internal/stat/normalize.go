package stat

import "math"

const (
	// defenseSoftCap is where defense starts counting half.
	defenseSoftCap = 300
	percentCap     = 100
)

// Normalize maps a raw accumulated value to the number gameplay uses.
// Pure: depends on t and raw only.
func Normalize(t Type, raw int64) int64 {
	switch t {
	case Evasion, CriticalRate, LifeSteal, Reflect:
		return clamp(raw, 0, percentCap)
	case Defense:
		return softCap(raw, defenseSoftCap)
	case CooldownReduction:
		if raw <= 0 {
			return 0
		}
		return raw * 100 / (raw + 100)
	case MoveSpeed, AttackSpeed, ProjectileSpeed:
		return logCurve(raw)
	case MaxHP:
		return max(raw, 1)
	case AttackPower, CriticalDamage:
		return max(raw, 0)
	}
	return raw
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}

// softCap is identity up to limit, half value above it.
func softCap(raw, limit int64) int64 {
	if raw <= 0 {
		return 0
	}
	if raw <= limit {
		return raw
	}
	return limit + (raw-limit)/2
}

// logCurve is 100*log2(1 + raw/100): 100 maps to 100, 300 to 200.
func logCurve(raw int64) int64 {
	if raw <= 0 {
		return 0
	}
	return int64(100 * math.Log2(1+float64(raw)/100))
}
