package main

import "testing"

func TestParseCheckArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantDirs    []string
		wantVerbose bool
		wantErr     bool
	}{
		{"no args defaults to cwd", nil, []string{"."}, false, false},
		{"single dir", []string{"./pkg"}, []string{"./pkg"}, false, false},
		{"verbose flag", []string{"-v", "./pkg"}, []string{"./pkg"}, true, false},
		{"long verbose", []string{"--verbose"}, []string{"."}, true, false},
		{"multiple dirs", []string{"a", "b"}, []string{"a", "b"}, false, false},
		{"unknown flag", []string{"--frobnicate"}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := parseCheckArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Error("parseCheckArgs succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCheckArgs failed: %v", err)
			}
			if config.verbose != tt.wantVerbose {
				t.Errorf("verbose = %v, want %v", config.verbose, tt.wantVerbose)
			}
			if len(config.dirs) != len(tt.wantDirs) {
				t.Fatalf("dirs = %v, want %v", config.dirs, tt.wantDirs)
			}
			for i := range config.dirs {
				if config.dirs[i] != tt.wantDirs[i] {
					t.Errorf("dirs[%d] = %q, want %q", i, config.dirs[i], tt.wantDirs[i])
				}
			}
		})
	}
}
