package model

// Metrics is the per-user summary returned by GET /users/metrics.
type Metrics struct {
	TotalMeals               int `json:"totalMeals"`
	MealsInDiet              int `json:"mealsInDiet"`
	MealsNotInDiet           int `json:"mealsNotInDiet"`
	BestSequenceOnDietInDays int `json:"bestSequenceOnDietInDays"`
}
