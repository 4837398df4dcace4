package compute

import "fmt"

// buildPrograms creates one program per source, in order. When a source
// fails, the programs already created are released with destroy and none
// are returned.
func buildPrograms(sources []string, create func(source string) (uint32, error), destroy func(program uint32)) ([]uint32, error) {
	programs := make([]uint32, 0, len(sources))
	for i, src := range sources {
		id, err := create(src)
		if err != nil {
			for _, built := range programs {
				destroy(built)
			}
			return nil, fmt.Errorf("program %d: %w", i, err)
		}
		programs = append(programs, id)
	}
	return programs, nil
}
