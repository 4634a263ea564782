package tracker

import "math"

// MaxLevel 是习惯和用户等级的上限
const MaxLevel = 10

// XPForDifficulty 返回单次打卡奖励的经验值
// 未知难度按 Easy 处理，保持引擎全量不报错
func XPForDifficulty(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// XPRequiredForLevel 返回从 level 升到 level+1 所需的经验值
// 阈值按 floor(100 * 1.2^(level-1)) 递增，1 级需要 100
func XPRequiredForLevel(level int) int {
	return int(math.Floor(100 * math.Pow(1.2, float64(level-1))))
}

// LevelForTotalXP 根据累计经验值推导等级
// 从 1 级开始逐级扣减所需经验，封顶 MaxLevel
func LevelForTotalXP(xp int) int {
	level := 1
	remaining := xp

	for remaining >= XPRequiredForLevel(level) {
		remaining -= XPRequiredForLevel(level)
		level++
		if level >= MaxLevel {
			return MaxLevel
		}
	}

	return level
}
