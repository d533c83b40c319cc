package scanner

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTasks_CrossProduct(t *testing.T) {
	got := slices.Collect(Tasks(slices.Values([]string{"h1", "h2"}), []int{80, 443}, []string{"head"}))
	assert.ElementsMatch(t, []Task{
		{Method: "head", Host: "h1", Port: 80},
		{Method: "head", Host: "h1", Port: 443},
		{Method: "head", Host: "h2", Port: 80},
		{Method: "head", Host: "h2", Port: 443},
	}, got)
}

func TestTasks_Order(t *testing.T) {
	got := slices.Collect(Tasks(slices.Values([]string{"a", "b"}), []int{1, 2}, []string{"head", "get"}))
	assert.Equal(t, []Task{
		{"head", "a", 1}, {"get", "a", 1},
		{"head", "a", 2}, {"get", "a", 2},
		{"head", "b", 1}, {"get", "b", 1},
		{"head", "b", 2}, {"get", "b", 2},
	}, got)
}

func TestTasks_EmptyInputs(t *testing.T) {
	assert.Empty(t, slices.Collect(Tasks(slices.Values([]string(nil)), []int{80}, []string{"head"})), "no hosts")
	assert.Empty(t, slices.Collect(Tasks(slices.Values([]string{"h"}), nil, []string{"head"})), "no ports")
	assert.Empty(t, slices.Collect(Tasks(slices.Values([]string{"h"}), []int{80}, nil)), "no methods")
}

func TestTasks_StopsEarly(t *testing.T) {
	n := 0
	for range Tasks(slices.Values([]string{"a", "b", "c"}), []int{1, 2, 3}, []string{"head"}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestTask_Address(t *testing.T) {
	assert.Equal(t, "example.com:8080", Task{Host: "example.com", Port: 8080}.Address())
	assert.Equal(t, "[::1]:53", Task{Host: "::1", Port: 53}.Address())
}
