package api

import (
	"errors"
	"reflect"
	"testing"
)

func TestReleaseParamsValidateRequired(t *testing.T) {
	valid := func() ReleaseParams {
		return ReleaseParams{
			ProductName:       "Sailcraft",
			Version:           "2.4.0",
			BuildNumber:       "1342",
			PublishingAccount: "releases@sailcraft.example.com",
			TesterGroups:      []string{"internal", "beta-customers"},
		}
	}

	tt := []struct {
		name          string
		mutate        func(p *ReleaseParams)
		expectedError error
	}{
		{
			name:          "all required params present",
			mutate:        func(p *ReleaseParams) {},
			expectedError: nil,
		},
		{
			name:          "missing product name",
			mutate:        func(p *ReleaseParams) { p.ProductName = "" },
			expectedError: errors.New(`required parameter "product-name" is missing or empty`),
		},
		{
			name:          "missing build number",
			mutate:        func(p *ReleaseParams) { p.BuildNumber = "" },
			expectedError: errors.New(`required parameter "build-number" is missing or empty`),
		},
		{
			name:          "missing publishing account",
			mutate:        func(p *ReleaseParams) { p.PublishingAccount = "" },
			expectedError: errors.New(`required parameter "publishing-account" is missing or empty`),
		},
		{
			name:          "missing tester groups",
			mutate:        func(p *ReleaseParams) { p.TesterGroups = nil },
			expectedError: errors.New(`required parameter "tester-groups" is missing or empty`),
		},
		{
			name: "first missing param wins",
			mutate: func(p *ReleaseParams) {
				p.BuildNumber = ""
				p.TesterGroups = nil
			},
			expectedError: errors.New(`required parameter "build-number" is missing or empty`),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(&p)

			err := p.ValidateRequired()
			if !reflect.DeepEqual(err, tc.expectedError) {
				t.Errorf("expected err %v, got %v", tc.expectedError, err)
			}
		})
	}
}
