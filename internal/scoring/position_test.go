package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{a: "backend developer", b: "서버 개발자", want: 1.0},
		{a: "backend developer", b: "frontend engineer", want: 0.0},
		{a: "Data Engineer", b: "Data Engineer", want: 1.0},
		{a: "Back-End Developer", b: "API server engineer", want: 1.0},
		{a: "iOS Developer", b: "Android engineer", want: 1.0},
		{a: "SRE", b: "DevOps Engineer", want: 1.0},
		{a: "Data Platform Engineer", b: "Data Engineer", want: 1.0},
		{a: "Cloud Data Engineer", b: "Data Engineer", want: 1.0},
		{a: "AI Platform Engineer", b: "ML Engineer", want: 1.0},
		{a: "ML Infrastructure Engineer", b: "Data Scientist", want: 1.0},
		{a: "Platform Engineer", b: "Backend Engineer", want: 0.0},
		{a: "QA Engineer", b: "qa engineer", want: 1.0},
		{a: "QA", b: "Senior QA Engineer", want: 0.8},
		{a: "QA Engineer", b: "Product Designer", want: 0.0},
		{a: "Backend", b: "Product Manager", want: 0.0},
		{a: "", b: "backend", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, PositionSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPositionCategoryShortKeywords(t *testing.T) {
	assert.Equal(t, "data_ml", PositionCategory("AI researcher"))
	assert.Equal(t, "", PositionCategory("Maintainer"))
	assert.Equal(t, "mobile", PositionCategory("ios"))
	assert.Equal(t, "frontend", PositionCategory("프론트엔드 개발자"))
	assert.Equal(t, "data_ml", PositionCategory("Data Platform Engineer"))
	assert.Equal(t, "data_ml", PositionCategory("Cloud Data Engineer"))
	assert.Equal(t, "devops", PositionCategory("Infrastructure Engineer"))
}
