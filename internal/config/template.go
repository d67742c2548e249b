package config

// DefaultConfigTemplate is written by `mapjar config init`.
const DefaultConfigTemplate = `# mapjar configuration.
# Every key can be overridden with a MAPJAR_* environment variable.

# cacheDir: ~/.mapjar/cache
# mappedDir: ~/.mapjar/cache

minecraft:
  name: minecraft
  # version: 1.16.5
  # jar: ~/.mapjar/minecraft-1.16.5-merged.jar

mappings:
  # file: ~/.mapjar/yarn-1.16.5+build.10-v2.jar
  # name: yarn
  # version: 1.16.5+build.10
  from: official
  intermediate: intermediary
  to: named

# classpath:
#   - ~/.mapjar/libraries/gson-2.8.0.jar

engine:
  # builtin rewrites classes in-process; exec runs tiny-remapper.
  kind: builtin
  # java: java
  # jar: ~/.mapjar/tiny-remapper-0.3.2-fat.jar
  # threads: 8

remap:
  timeout: 30m

refreshDependencies: false

log:
  timestamps: true
`
