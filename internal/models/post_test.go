package models

import (
	"testing"
	"time"
)

func TestRecycleEligible(t *testing.T) {
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	eightDaysAgo := now.AddDate(0, 0, -8)
	sixDaysAgo := now.AddDate(0, 0, -6)

	cases := []struct {
		name string
		post Post
		want bool
	}{
		{
			"weekly recycled 8 days ago",
			Post{Status: PostStatusPublished, IsEvergreen: true, RecycleFrequency: RecycleWeekly, LastRecycled: &eightDaysAgo},
			true,
		},
		{
			"weekly recycled 6 days ago",
			Post{Status: PostStatusPublished, IsEvergreen: true, RecycleFrequency: RecycleWeekly, LastRecycled: &sixDaysAgo},
			false,
		},
		{
			"never recycled",
			Post{Status: PostStatusPublished, IsEvergreen: true, RecycleFrequency: RecycleMonthly},
			true,
		},
		{
			"none frequency never recycles",
			Post{Status: PostStatusPublished, IsEvergreen: true, RecycleFrequency: RecycleNone},
			false,
		},
		{
			"empty frequency never recycles",
			Post{Status: PostStatusPublished, IsEvergreen: true},
			false,
		},
		{
			"non-evergreen never recycles",
			Post{Status: PostStatusPublished, RecycleFrequency: RecycleWeekly, LastRecycled: &eightDaysAgo},
			false,
		},
		{
			"scheduled post never recycles",
			Post{Status: PostStatusScheduled, IsEvergreen: true, RecycleFrequency: RecycleWeekly},
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.post.RecycleEligible(now); got != tc.want {
				t.Errorf("RecycleEligible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecycleInterval(t *testing.T) {
	if d, ok := RecycleInterval(RecycleBiweekly); !ok || d != 14*24*time.Hour {
		t.Errorf("biweekly interval = %v ok=%v", d, ok)
	}
	if _, ok := RecycleInterval(RecycleNone); ok {
		t.Error("none frequency should have no interval")
	}
	if _, ok := RecycleInterval("yearly"); ok {
		t.Error("unknown frequency should have no interval")
	}
}
